package httpapi

import (
	"log/slog"

	"careerpath/internal/examservice"
)

type API struct {
	service *examservice.Service
	auth    *Authenticator
	log     *slog.Logger
}

func NewAPI(service *examservice.Service, auth *Authenticator, logger *slog.Logger) *API {
	if auth == nil {
		auth = NewAuthenticator("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		service: service,
		auth:    auth,
		log:     logger,
	}
}
