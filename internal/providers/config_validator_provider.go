package providers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gookit/validate"

	"quotad/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}

	c := cv.conf
	if c.Storage.Driver == "redis" && c.Redis.Address == "" && c.Redis.URL == "" {
		return errors.New("invalid config: redis driver requires redis.address or redis.url")
	}
	if c.Storage.Driver == "freecache" && c.Cache.Size <= 0 {
		return errors.New("invalid config: freecache driver requires a positive cache.size")
	}
	// A record must outlive the day it counts.
	if c.Storage.RecordTTL < 0 || (c.Storage.RecordTTL > 0 && c.Storage.RecordTTL < 24*time.Hour) {
		return errors.New("invalid config: storage.recordTTL must be zero or at least 24h")
	}
	if c.Persistence.FilePath != "" && c.Persistence.SaveInterval <= 0 {
		return errors.New("invalid config: persistence.saveInterval must be positive")
	}
	if c.Quota.Timezone != "" {
		if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
			return fmt.Errorf("invalid config: quota.timezone: %w", err)
		}
	}
	return nil
}
