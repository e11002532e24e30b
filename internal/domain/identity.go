package domain

import "time"

// Identity describes who the current storefront session belongs to.
// The zero value is a guest.
type Identity struct {
	Authenticated bool
	Token         string
	Role          Role
	Subject       string
	ExpiresAt     time.Time
}

// Guest returns the unauthenticated identity.
func Guest() Identity {
	return Identity{}
}

// Expired reports whether the token carries an expiry that has passed.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// SameAccount reports whether both identities refer to the same session owner.
func (i Identity) SameAccount(other Identity) bool {
	if i.Authenticated != other.Authenticated {
		return false
	}
	if !i.Authenticated {
		return true
	}
	return i.Subject == other.Subject && i.Token == other.Token
}
