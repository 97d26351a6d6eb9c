package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strconv"
	"strings"

	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"go.uber.org/zap"
)

// Mailer hands a composed message to an outbound transport. Delivery receipts,
// bounces and retries are not tracked.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// SMTPMailer sends HTML mail through an SMTP relay
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password, from: from}
}

// Send blocks until the relay accepts the message or ctx ends. An abandoned
// send keeps running in the background until the relay answers.
func (m *SMTPMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("missing SMTP configuration")
	}

	raw := buildMessage(m.from, msg)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	addr := m.host + ":" + strconv.Itoa(m.port)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.from, []string{msg.To}, raw)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// headerValue drops line breaks so a value cannot start a new header
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}

func buildMessage(from string, msg models.EmailMessage) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		headerValue(from), headerValue(msg.To), mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)), msg.Body,
	))
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("[EMAIL] message not sent, no SMTP relay configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

var (
	coupleCredentialsTemplate = template.Must(template.New("couple_credentials").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #333;">
  <h2>Welcome to Heartgram, {{.Name}}</h2>
  <p>Your wedding event <strong>{{.EventName}}</strong> is ready.</p>
  <p>Sign in with these credentials:</p>
  <ul>
    <li>Email: {{.Email}}</li>
    <li>Password: <code>{{.Password}}</code></li>
    <li>Event code: <code>{{.EventCode}}</code></li>
  </ul>
  <p><a href="{{.LoginURL}}">Sign in to your dashboard</a></p>
  <p>Please keep this password private.</p>
</body>
</html>`))

	guestInvitationTemplate = template.Must(template.New("guest_invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; color: #333;">
  <h2>Dear {{.GuestName}},</h2>
  <p>You are invited to share moments from <strong>{{.EventName}}</strong>.</p>
  <p>Join with:</p>
  <ul>
    <li>Event code: <code>{{.EventCode}}</code></li>
    <li>Wedding password: <code>{{.Password}}</code></li>
  </ul>
  <p><a href="{{.JoinURL}}">Join the event</a></p>
</body>
</html>`))
)

type coupleCredentialsData struct {
	Name      string
	Email     string
	Password  string
	EventName string
	EventCode string
	LoginURL  string
}

type guestInvitationData struct {
	GuestName string
	EventName string
	EventCode string
	Password  string
	JoinURL   string
}

// ComposeCoupleCredentials renders the provisioning mail sent to a new couple
func ComposeCoupleCredentials(baseURL string, operator *models.Operator, tenant *models.Tenant, secret string) (models.EmailMessage, error) {
	var body bytes.Buffer
	err := coupleCredentialsTemplate.Execute(&body, coupleCredentialsData{
		Name:      operator.Name,
		Email:     operator.Email,
		Password:  secret,
		EventName: tenant.Name,
		EventCode: tenant.Code,
		LoginURL:  baseURL + "/login",
	})
	if err != nil {
		return models.EmailMessage{}, fmt.Errorf("render couple credentials: %w", err)
	}
	return models.EmailMessage{
		To:      operator.Email,
		Subject: fmt.Sprintf("Your Heartgram event %q is ready", tenant.Name),
		Body:    body.String(),
	}, nil
}

// ComposeGuestInvitation renders an invitation carrying the shared secret
func ComposeGuestInvitation(baseURL string, tenant *models.Tenant, member *models.Member, sharedSecret string) (models.EmailMessage, error) {
	var body bytes.Buffer
	err := guestInvitationTemplate.Execute(&body, guestInvitationData{
		GuestName: member.Name,
		EventName: tenant.Name,
		EventCode: tenant.Code,
		Password:  sharedSecret,
		JoinURL:   baseURL + "/guest/login?code=" + tenant.Code,
	})
	if err != nil {
		return models.EmailMessage{}, fmt.Errorf("render guest invitation: %w", err)
	}
	return models.EmailMessage{
		To:      member.Email,
		Subject: fmt.Sprintf("You're invited to %s", tenant.Name),
		Body:    body.String(),
	}, nil
}
