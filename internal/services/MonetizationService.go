package services

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"quotad/internal/models"
	"quotad/internal/providers"
	"quotad/internal/storage"
	"quotad/internal/structures"
)

const (
	DefaultRegisterText  = "Register to get %d daily conversions!"
	DefaultRemainingText = "%d conversions remaining today"
)

type MonetizationServiceInterface interface {
	GetUserUsage(ctx context.Context, scope models.Scope) (models.UsageRecord, error)
	GetMonetizationState(ctx context.Context, scope models.Scope) (models.MonetizationState, error)
	CanConvert(ctx context.Context, scope models.Scope) (bool, error)
	IncrementConversion(ctx context.Context, scope models.Scope) (bool, error)
	RewardAdWatch(ctx context.Context, scope models.Scope) (bool, error)
	SetUserRegistered(ctx context.Context, scope models.Scope) (models.UsageRecord, error)
	GetUsageText(ctx context.Context, scope models.Scope) (string, error)
	ClearStorage(ctx context.Context, scope models.Scope) error
}

// MonetizationService decides whether a scope may convert. Every operation
// is one atomic read-modify-write of the scope's record, so the check and
// the increment of IncrementConversion can't be split by another writer.
type MonetizationService struct {
	store         storage.Store
	clock         providers.Clock
	limits        models.Limits
	registerText  string
	remainingText string
	logger        providers.Logger
	metrics       providers.MetricsProviderInterface
}

func NewMonetizationService(conf *structures.Config, store storage.Store, clock providers.Clock, logger providers.Logger, metrics providers.MetricsProviderInterface) MonetizationServiceInterface {
	ms := &MonetizationService{
		store:  store,
		clock:  clock,
		logger: logger,
		limits: models.Limits{
			AnonymousDaily:  conf.Quota.AnonymousDailyLimit,
			RegisteredDaily: conf.Quota.RegisteredDailyLimit,
			MaxAdWatches:    conf.Quota.MaxAdWatches,
		},
		registerText:  conf.Quota.RegisterText,
		remainingText: conf.Quota.RemainingText,
		metrics:       metrics,
	}
	if ms.registerText == "" {
		ms.registerText = DefaultRegisterText
	}
	if ms.remainingText == "" {
		ms.remainingText = DefaultRemainingText
	}
	return ms
}

// Midnight truncates t to the start of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// calendarDay maps the wall-clock date of t onto UTC so dates recorded in
// different offsets compare by (year, month, day) only.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeriveState computes the view of a record for a caller. It is pure.
func DeriveState(rec models.UsageRecord, registered bool, limits models.Limits) models.MonetizationState {
	totalAllowed := limits.BaseLimit(registered) + rec.AdWatches
	hasReachedLimit := rec.Conversions >= totalAllowed
	st := models.MonetizationState{
		HasReachedLimit:      hasReachedLimit,
		CanWatchAd:           rec.AdWatches < limits.MaxAdWatches && hasReachedLimit,
		RemainingConversions: max(0, totalAllowed-rec.Conversions),
		RemainingAdWatches:   max(0, limits.MaxAdWatches-rec.AdWatches),
		ShowLoginPrompt:      !registered && rec.Conversions >= limits.AnonymousDaily,
		TotalAllowed:         totalAllowed,
	}

	switch {
	case !hasReachedLimit:
		st.NextStep = models.StepConvert
	case !registered && st.ShowLoginPrompt:
		st.NextStep = models.StepRegister
	case st.CanWatchAd:
		st.NextStep = models.StepWatchAd
	default:
		st.NextStep = models.StepExhausted
	}
	return st
}

type loadOutcome struct {
	record  models.UsageRecord
	reset   bool
	corrupt bool
}

// normalize brings a stored record up to date for today. dirty reports
// whether the result differs from what is stored.
func (ms *MonetizationService) normalize(raw []byte, found bool, id models.Identity, today time.Time) (out loadOutcome, dirty bool) {
	if found {
		if err := json.Unmarshal(raw, &out.record); err != nil || !out.record.Valid() {
			out.corrupt = true
			found = false
		}
	}
	if !found {
		out.record = models.NewUsageRecord(id, today)
		return out, true
	}

	// The stored day is read in the offset it was recorded with, so an
	// offset change within one local day does not start a new day.
	lastReset := Midnight(out.record.LastReset, out.record.LastReset.Location())
	if calendarDay(lastReset).Before(calendarDay(today)) {
		out.record.Conversions = 0
		out.record.AdWatches = 0
		out.record.LastReset = today
		out.record.IsRegistered = id.Registered
		out.record.UserUID = id.OwnerID
		out.reset = true
		return out, true
	}

	out.record.LastReset = lastReset
	if out.record.IsRegistered != id.Registered || out.record.UserUID != id.OwnerID {
		out.record.IsRegistered = id.Registered
		out.record.UserUID = id.OwnerID
		dirty = true
	}
	return out, dirty
}

// update loads and normalizes the scope's record, applies op and writes the
// result back when anything changed. op reports whether it mutated the record.
func (ms *MonetizationService) update(ctx context.Context, scope models.Scope, op func(rec *models.UsageRecord) bool) (models.UsageRecord, error) {
	id := scope.Identity.Normalize()
	today := Midnight(ms.clock.Now(), scope.Loc())

	var out loadOutcome
	err := ms.store.Update(ctx, scope.StorageKey, func(cur []byte, found bool) ([]byte, bool, error) {
		var dirty bool
		out, dirty = ms.normalize(cur, found, id, today)
		if op != nil && op(&out.record) {
			dirty = true
		}
		if !dirty {
			return nil, false, nil
		}
		data, err := json.Marshal(out.record)
		if err != nil {
			return nil, false, fmt.Errorf("encode usage record: %w", err)
		}
		return data, true, nil
	})
	if err != nil {
		return models.UsageRecord{}, fmt.Errorf("update usage %s: %w", scope.StorageKey, err)
	}

	if out.corrupt {
		ms.metrics.IncCorruptRecords()
		ms.logger.Warnf(providers.TypeQuota, "Corrupt usage record %s reinitialized", scope.StorageKey)
	}
	if out.reset {
		ms.metrics.IncDailyResets()
		ms.logger.Infof(providers.TypeQuota, "Daily reset of %s", scope.StorageKey)
	}
	return out.record, nil
}

func (ms *MonetizationService) GetUserUsage(ctx context.Context, scope models.Scope) (models.UsageRecord, error) {
	return ms.update(ctx, scope, nil)
}

func (ms *MonetizationService) GetMonetizationState(ctx context.Context, scope models.Scope) (models.MonetizationState, error) {
	rec, err := ms.GetUserUsage(ctx, scope)
	if err != nil {
		return models.MonetizationState{}, err
	}
	return DeriveState(rec, scope.Identity.Normalize().Registered, ms.limits), nil
}

func (ms *MonetizationService) CanConvert(ctx context.Context, scope models.Scope) (bool, error) {
	st, err := ms.GetMonetizationState(ctx, scope)
	if err != nil {
		return false, err
	}
	return !st.HasReachedLimit, nil
}

// IncrementConversion spends one conversion if the scope has allowance left.
func (ms *MonetizationService) IncrementConversion(ctx context.Context, scope models.Scope) (bool, error) {
	registered := scope.Identity.Normalize().Registered
	var granted bool
	rec, err := ms.update(ctx, scope, func(rec *models.UsageRecord) bool {
		granted = !DeriveState(*rec, registered, ms.limits).HasReachedLimit
		if granted {
			rec.Conversions++
		}
		return granted
	})
	if err != nil {
		return false, err
	}

	ms.metrics.IncDecision("convert", decisionResult(granted))
	ms.logger.Debugf(providers.TypeQuota, "Conversion %s for %s (%d used, %d ad credits)",
		decisionResult(granted), scope.StorageKey, rec.Conversions, rec.AdWatches)
	return granted, nil
}

// RewardAdWatch grants one bonus conversion. It does not spend it.
func (ms *MonetizationService) RewardAdWatch(ctx context.Context, scope models.Scope) (bool, error) {
	var granted bool
	rec, err := ms.update(ctx, scope, func(rec *models.UsageRecord) bool {
		granted = rec.AdWatches < ms.limits.MaxAdWatches
		if granted {
			rec.AdWatches++
		}
		return granted
	})
	if err != nil {
		return false, err
	}

	ms.metrics.IncDecision("ad_reward", decisionResult(granted))
	ms.logger.Debugf(providers.TypeQuota, "Ad reward %s for %s (%d/%d)",
		decisionResult(granted), scope.StorageKey, rec.AdWatches, ms.limits.MaxAdWatches)
	return granted, nil
}

// SetUserRegistered syncs the cached identity of the scope's record. Usage
// of a previous anonymous scope is not carried over.
func (ms *MonetizationService) SetUserRegistered(ctx context.Context, scope models.Scope) (models.UsageRecord, error) {
	id := scope.Identity.Normalize()
	rec, err := ms.update(ctx, scope, func(rec *models.UsageRecord) bool {
		changed := rec.IsRegistered != id.Registered || rec.UserUID != id.OwnerID
		rec.IsRegistered = id.Registered
		rec.UserUID = id.OwnerID
		return changed
	})
	if err != nil {
		return models.UsageRecord{}, err
	}
	ms.logger.Debugf(providers.TypeQuota, "Registration synced for %s (registered=%t)", scope.StorageKey, id.Registered)
	return rec, nil
}

func (ms *MonetizationService) GetUsageText(ctx context.Context, scope models.Scope) (string, error) {
	st, err := ms.GetMonetizationState(ctx, scope)
	if err != nil {
		return "", err
	}
	if !scope.Identity.Normalize().Registered && st.ShowLoginPrompt {
		return fmt.Sprintf(ms.registerText, ms.limits.RegisteredDaily), nil
	}
	return fmt.Sprintf(ms.remainingText, st.RemainingConversions), nil
}

// ClearStorage drops the scope's record; the next query starts it fresh.
func (ms *MonetizationService) ClearStorage(ctx context.Context, scope models.Scope) error {
	if err := ms.store.Delete(ctx, scope.StorageKey); err != nil {
		return fmt.Errorf("clear usage %s: %w", scope.StorageKey, err)
	}
	ms.logger.Infof(providers.TypeQuota, "Usage record %s cleared", scope.StorageKey)
	return nil
}

func decisionResult(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}
