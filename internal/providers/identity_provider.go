package providers

import (
	"fmt"
	"time"

	"quotad/internal/identity"
	"quotad/internal/structures"
)

func NewResolverProvider(conf *structures.Config) (*identity.Resolver, error) {
	loc := time.Local
	if conf.Quota.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(conf.Quota.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", conf.Quota.Timezone, err)
		}
	}
	return identity.NewResolver(conf.Quota.StorageKey, loc), nil
}

func NewTokenVerifierProvider(conf *structures.Config, clock Clock, logger Logger) *identity.TokenVerifier {
	if conf.Identity.Secret == "" {
		logger.Warnf(TypeApp, "Identity provider disabled: every caller is anonymous")
	}
	return identity.NewTokenVerifier(conf.Identity.Secret, conf.Identity.Issuer, clock.Now)
}
