package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus gates access to an event
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusCompleted TenantStatus = "completed"
)

// Valid reports whether s is a known status
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive, TenantStatusCompleted:
		return true
	}
	return false
}

// Branding defaults applied to new events
const (
	DefaultBrandColor = "#d946ef"
	DefaultFont       = "Playfair Display"
	TenantCodeLength  = 8
)

// Tenant is a wedding event: an isolated namespace owned by one couple
type Tenant struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Code          string       `json:"event_code" db:"event_code"`
	OwnerID       uuid.UUID    `json:"owner_id" db:"owner_operator_id"`
	Status        TenantStatus `json:"status" db:"status"`
	Name          string       `json:"name" db:"name"`
	ScheduledDate *time.Time   `json:"event_date,omitempty" db:"event_date"`
	Description   *string      `json:"description,omitempty" db:"description"`
	BrandColor    string       `json:"primary_color" db:"primary_color"`
	LogoRef       *string      `json:"logo_url,omitempty" db:"logo_url"`
	FontRef       *string      `json:"font_name,omitempty" db:"font_name"`
	UseTextLogo   bool         `json:"use_logo_text" db:"use_logo_text"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// TenantView is a tenant with live counts computed at read time.
// Counts are approximate under concurrent writes.
type TenantView struct {
	Tenant
	GuestCount int `json:"guest_count"`
	PostCount  int `json:"post_count"`
}

// BrandingUpdate carries a partial branding change; nil fields are left as they are
type BrandingUpdate struct {
	BrandColor  *string `json:"primary_color,omitempty"`
	LogoRef     *string `json:"logo_url,omitempty"`
	FontRef     *string `json:"font_name,omitempty"`
	UseTextLogo *bool   `json:"use_logo_text,omitempty"`
}

// Empty reports whether the update changes nothing
func (b BrandingUpdate) Empty() bool {
	return b.BrandColor == nil && b.LogoRef == nil && b.FontRef == nil && b.UseTextLogo == nil
}

// DetailsUpdate carries a partial details change; nil fields are left as they are.
// ClearScheduledDate removes the date and takes precedence over ScheduledDate.
type DetailsUpdate struct {
	Name               *string    `json:"name,omitempty"`
	ScheduledDate      *time.Time `json:"event_date,omitempty"`
	ClearScheduledDate bool       `json:"-"`
	Description        *string    `json:"description,omitempty"`
}

// Empty reports whether the update changes nothing
func (d DetailsUpdate) Empty() bool {
	return d.Name == nil && d.ScheduledDate == nil && !d.ClearScheduledDate && d.Description == nil
}

// PlatformStats summarizes the platform for the admin dashboard
type PlatformStats struct {
	TotalEvents     int       `json:"total_events"`
	ActiveEvents    int       `json:"active_events"`
	InactiveEvents  int       `json:"inactive_events"`
	CompletedEvents int       `json:"completed_events"`
	TotalGuests     int       `json:"total_guests"`
	TotalCouples    int       `json:"total_couples"`
	GeneratedAt     time.Time `json:"generated_at"`
}
