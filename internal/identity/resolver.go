package identity

import (
	"time"

	"quotad/internal/models"
)

const DefaultAnonymousKey = "convertpro_usage"

// Resolver turns a caller into the scope its usage record lives under.
type Resolver struct {
	anonymousKey string
	location     *time.Location
}

// NewResolver builds a resolver. location is the day-boundary calendar used
// when the device does not report its timezone offset.
func NewResolver(anonymousKey string, location *time.Location) *Resolver {
	if anonymousKey == "" {
		anonymousKey = DefaultAnonymousKey
	}
	if location == nil {
		location = time.Local
	}
	return &Resolver{anonymousKey: anonymousKey, location: location}
}

// ScopeKey is deterministic in (registration, owner id, device signals).
// Every anonymous caller of a browser shares the fixed key; registered
// callers are bound to their device so a logout/login cycle can't reset them.
func (r *Resolver) ScopeKey(id models.Identity, ds *models.DeviceSignals) string {
	id = id.Normalize()
	if !id.Registered {
		return r.anonymousKey
	}
	return r.anonymousKey + "_" + id.OwnerID + "_" + Fingerprint(ds)
}

// StorageKey prefixes a scope key with the browser partition.
func StorageKey(partition, scopeKey string) string {
	if partition == "" {
		return scopeKey
	}
	return partition + ":" + scopeKey
}

func (r *Resolver) Resolve(partition string, id models.Identity, ds *models.DeviceSignals) models.Scope {
	id = id.Normalize()
	return models.Scope{
		StorageKey: StorageKey(partition, r.ScopeKey(id, ds)),
		Identity:   id,
		Location:   ds.Location(r.location),
	}
}
