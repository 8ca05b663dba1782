package domain

import "time"

// AccessToken is an opaque bearer credential issued by the CRM.
// ExpiresAt already includes the refresh safety margin.
type AccessToken struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the token can still be used at the given instant.
func (t AccessToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}
