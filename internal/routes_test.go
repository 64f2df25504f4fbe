package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotad/internal/controllers"
	"quotad/internal/identity"
	"quotad/internal/services"
	"quotad/internal/storage"
	"quotad/internal/structures"
	"quotad/internal/testutil"
)

func testUsageController() *controllers.UsageController {
	conf := &structures.Config{
		Quota: structures.QuotaConfig{
			AnonymousDailyLimit:  1,
			RegisteredDailyLimit: 3,
			MaxAdWatches:         2,
		},
		Identity: structures.IdentityConfig{CookieName: "quotad_bid"},
	}
	clock := testutil.NewFakeClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	logger := &testutil.MockLogger{}
	svc := services.NewMonetizationService(conf, storage.NewMemoryStore(), clock, logger, &testutil.MockMetrics{})
	return controllers.NewUsageController(logger, svc, identity.NewResolver("", time.UTC), identity.NewTokenVerifier("", "", clock.Now), conf)
}

func TestInitRoutes_RegistersUsageRoutes(t *testing.T) {
	routes := InitRoutes(testUsageController()).GetRoutes()
	require.Len(t, routes, 7)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
		assert.Equal(t, http.MethodPost, r.Method)
	}
	for _, name := range []string{"state", "check", "convert", "ad-reward", "register", "text", "reset"} {
		assert.Contains(t, urls, "/v1/usage/"+name)
	}
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := http.NewServeMux()
	for _, r := range InitRoutes(testUsageController()).GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/state", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodPost, "/v1/usage/state", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
