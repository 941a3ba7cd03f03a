package model

import (
	"database/sql/driver"
	"strings"
	"time"
)

// DayHours is the opening window for one weekday
type DayHours struct {
	Open   string `json:"open,omitempty" binding:"omitempty,hhmm"`
	Close  string `json:"close,omitempty" binding:"omitempty,hhmm"`
	Closed bool   `json:"closed"`
}

// BusinessHours is a weekly schedule keyed by lowercase weekday name
type BusinessHours map[string]DayHours

func (h BusinessHours) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return jsonValue(h)
}

func (h *BusinessHours) Scan(src interface{}) error {
	return jsonScan(src, h)
}

// IsOpen reports whether the window [start, end) on date falls inside the
// clinic's hours. A clinic without configured hours accepts any window.
func (h BusinessHours) IsOpen(date time.Time, start, end string) bool {
	if len(h) == 0 {
		return true
	}
	day, ok := h[strings.ToLower(date.Weekday().String())]
	if !ok || day.Closed || day.Open == "" || day.Close == "" {
		return false
	}
	return start >= day.Open && end <= day.Close
}

type Clinic struct {
	Base
	Name                 string        `db:"name" json:"name"`
	Slug                 string        `db:"slug" json:"slug"`
	Email                string        `db:"email" json:"email"`
	PasswordHash         string        `db:"password_hash" json:"-"`
	Phone                string        `db:"phone" json:"phone"`
	Address              string        `db:"address" json:"address"`
	City                 string        `db:"city" json:"city"`
	Description          string        `db:"description" json:"description"`
	BusinessHours        BusinessHours `db:"business_hours" json:"business_hours"`
	IsVerified           bool          `db:"is_verified" json:"is_verified"`
	IsActive             bool          `db:"is_active" json:"is_active"`
	VIPProgramEnabled    bool          `db:"vip_program_enabled" json:"vip_program_enabled"`
	OnlineBookingEnabled bool          `db:"online_booking_enabled" json:"online_booking_enabled"`
}

type CreateClinicRequest struct {
	Name                 string        `json:"name" binding:"required,max=200"`
	Slug                 string        `json:"slug" binding:"omitempty,slug,max=100"`
	Email                string        `json:"email" binding:"required,email"`
	Password             string        `json:"password" binding:"required,min=8"`
	Phone                string        `json:"phone" binding:"omitempty,phone"`
	Address              string        `json:"address" binding:"max=500"`
	City                 string        `json:"city" binding:"max=100"`
	Description          string        `json:"description" binding:"max=2000"`
	BusinessHours        BusinessHours `json:"business_hours" binding:"omitempty,dive"`
	VIPProgramEnabled    bool          `json:"vip_program_enabled"`
	OnlineBookingEnabled *bool         `json:"online_booking_enabled"`
}

type UpdateClinicRequest struct {
	Name                 *string       `json:"name" binding:"omitempty,max=200"`
	Phone                *string       `json:"phone" binding:"omitempty,phone"`
	Address              *string       `json:"address" binding:"omitempty,max=500"`
	City                 *string       `json:"city" binding:"omitempty,max=100"`
	Description          *string       `json:"description" binding:"omitempty,max=2000"`
	BusinessHours        BusinessHours `json:"business_hours" binding:"omitempty,dive"`
	VIPProgramEnabled    *bool         `json:"vip_program_enabled"`
	OnlineBookingEnabled *bool         `json:"online_booking_enabled"`
}

type ClinicFilters struct {
	City       string
	ActiveOnly bool
	Pagination
}

