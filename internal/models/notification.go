package models

// EmailMessage is a fully composed outbound mail handed to the transport
type EmailMessage struct {
	To      string
	Subject string
	Body    string // HTML
}
