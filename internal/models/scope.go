package models

import "time"

// Identity is what the identity provider tells us about a caller.
// It is untrusted input, refreshed on every request.
type Identity struct {
	Registered bool   `json:"registered"`
	OwnerID    string `json:"ownerId,omitempty"`
}

// Normalize degrades a registered identity without an owner id to anonymous,
// and drops the owner id of an anonymous one.
func (id Identity) Normalize() Identity {
	if !id.Registered || id.OwnerID == "" {
		return Identity{}
	}
	return id
}

// Scope is a resolved usage scope: where the record lives, who owns it and
// which calendar the day boundary follows.
type Scope struct {
	StorageKey string
	Identity   Identity
	Location   *time.Location
}

func (s Scope) Loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
