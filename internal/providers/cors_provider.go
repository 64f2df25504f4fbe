package providers

import (
	"net/http"

	"github.com/rs/cors"

	"quotad/internal/structures"
)

// NewCorsProvider allows the conversion front end to call the daemon from
// its own origin with the browser-id cookie attached.
func NewCorsProvider(conf *structures.Config) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   conf.Cors.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})
}
