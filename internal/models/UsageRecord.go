package models

import "time"

// UsageRecord is the persisted quota state of one scope. The JSON shape is
// shared with the browser front end, which used to keep it in localStorage.
type UsageRecord struct {
	Conversions  int       `json:"conversions"`
	LastReset    time.Time `json:"lastReset"`
	AdWatches    int       `json:"adWatches"`
	IsRegistered bool      `json:"isRegistered"`
	UserUID      string    `json:"userUid,omitempty"`
}

// NewUsageRecord returns a zeroed record owned by id, reset at today.
func NewUsageRecord(id Identity, today time.Time) UsageRecord {
	return UsageRecord{
		LastReset:    today,
		IsRegistered: id.Registered,
		UserUID:      id.OwnerID,
	}
}

// Valid reports whether a decoded record can be trusted.
func (ur UsageRecord) Valid() bool {
	return ur.Conversions >= 0 && ur.AdWatches >= 0 && !ur.LastReset.IsZero()
}

// Limits is the daily allowance policy.
type Limits struct {
	AnonymousDaily  int
	RegisteredDaily int
	MaxAdWatches    int
}

func DefaultLimits() Limits {
	return Limits{
		AnonymousDaily:  1,
		RegisteredDaily: 3,
		MaxAdWatches:    2,
	}
}

// BaseLimit is the free allowance for the given tier, before ad credits.
func (l Limits) BaseLimit(registered bool) int {
	if registered {
		return l.RegisteredDaily
	}
	return l.AnonymousDaily
}
