package session

import (
	"strings"
	"time"
)

// Session is the authenticated identity kept for one device.
type Session struct {
	UserID   int64      `json:"user_id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	Token    string     `json:"token"`
	CartID   *int64     `json:"cart_id,omitempty"`
	Expiry   *time.Time `json:"expiry,omitempty"`
}

// IsValid reports whether the session may still be used at now.
// A session without an expiry never expires.
func (s Session) IsValid(now time.Time) bool {
	if s.Expiry == nil {
		return true
	}
	return now.Before(*s.Expiry)
}

// HasRole compares case-insensitively; the backend sends ADMIN and CUSTOMER.
func (s Session) HasRole(role string) bool {
	return strings.EqualFold(s.Role, role)
}

func (s Session) IsAdmin() bool {
	return s.HasRole("admin")
}

// Clone returns a deep copy so subscribers never share pointers with the store.
func (s Session) Clone() Session {
	out := s
	if s.CartID != nil {
		id := *s.CartID
		out.CartID = &id
	}
	if s.Expiry != nil {
		exp := *s.Expiry
		out.Expiry = &exp
	}
	return out
}

// Public drops the bearer token for responses sent to the browser.
func (s Session) Public() Session {
	out := s.Clone()
	out.Token = ""
	return out
}
