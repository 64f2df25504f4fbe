package controllers

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"quotad/internal/identity"
	"quotad/internal/models"
	"quotad/internal/providers"
	"quotad/internal/services"
	"quotad/internal/structures"
)

const maxRequestBodySize = 64 << 10 // 64 KB

type usageRequest struct {
	Device *models.DeviceSignals `json:"device"`
}

type stateResponse struct {
	models.MonetizationState
	UsageText string `json:"usageText"`
}

type checkResponse struct {
	Allowed bool                     `json:"allowed"`
	State   models.MonetizationState `json:"state"`
}

type grantResponse struct {
	Granted bool                     `json:"granted"`
	State   models.MonetizationState `json:"state"`
}

type registerResponse struct {
	Registered bool                     `json:"registered"`
	State      models.MonetizationState `json:"state"`
}

type textResponse struct {
	Text string `json:"text"`
}

type resetResponse struct {
	Cleared bool `json:"cleared"`
}

type UsageController struct {
	logger   providers.Logger
	service  services.MonetizationServiceInterface
	resolver *identity.Resolver
	verifier *identity.TokenVerifier
	cookie   structures.IdentityConfig
}

func NewUsageController(logger providers.Logger, service services.MonetizationServiceInterface, resolver *identity.Resolver, verifier *identity.TokenVerifier, conf *structures.Config) *UsageController {
	return &UsageController{
		logger:   logger,
		service:  service,
		resolver: resolver,
		verifier: verifier,
		cookie:   conf.Identity,
	}
}

// partition returns the browser id from the cookie, issuing a new one when
// the cookie is missing or not a UUID.
func (uc *UsageController) partition(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(uc.cookie.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     uc.cookie.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(uc.cookie.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   uc.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (uc *UsageController) identify(r *http.Request) models.Identity {
	header := r.Header.Get("Authorization")
	if header == "" || !uc.verifier.Enabled() {
		return models.Identity{}
	}
	id, err := uc.verifier.Verify(header)
	if err != nil {
		uc.logger.Debugf(providers.TypePost, "Anonymous fallback: %s", err)
		return models.Identity{}
	}
	return id
}

// scope decodes the request and resolves the caller's scope. An empty body
// is an anonymous caller without device signals.
func (uc *UsageController) scope(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload usageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return models.Scope{}, false
	}
	partition := uc.partition(w, r)
	return uc.resolver.Resolve(partition, uc.identify(r), payload.Device), true
}

func (uc *UsageController) fail(w http.ResponseWriter, r *http.Request, err error) {
	uc.logger.Errorf(providers.TypeQuota, "%s failed: %s", r.URL.Path, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (uc *UsageController) State(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	state, err := uc.service.GetMonetizationState(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	text, err := uc.service.GetUsageText(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{MonetizationState: state, UsageText: text})
}

func (uc *UsageController) Check(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	allowed, err := uc.service.CanConvert(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	state, err := uc.service.GetMonetizationState(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Allowed: allowed, State: state})
}

func (uc *UsageController) Convert(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	granted, err := uc.service.IncrementConversion(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	state, err := uc.service.GetMonetizationState(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if !granted {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, grantResponse{Granted: granted, State: state})
}

func (uc *UsageController) AdReward(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	granted, err := uc.service.RewardAdWatch(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	state, err := uc.service.GetMonetizationState(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if !granted {
		status = http.StatusConflict
	}
	writeJSON(w, status, grantResponse{Granted: granted, State: state})
}

func (uc *UsageController) Register(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	rec, err := uc.service.SetUserRegistered(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	state, err := uc.service.GetMonetizationState(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Registered: rec.IsRegistered, State: state})
}

func (uc *UsageController) Text(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	text, err := uc.service.GetUsageText(r.Context(), scope)
	if err != nil {
		uc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

func (uc *UsageController) Reset(w http.ResponseWriter, r *http.Request) {
	scope, ok := uc.scope(w, r)
	if !ok {
		return
	}
	if err := uc.service.ClearStorage(r.Context(), scope); err != nil {
		uc.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Cleared: true})
}
