package service

import (
	"cnpjapi/cmd/internal/contract"
	"cnpjapi/cmd/internal/utils"
	"context"
	"errors"

	"github.com/labstack/gommon/log"
)

const ServiceName = "Desafio Esfera Solar API"

type DatabasePinger interface {
	Ping(ctx context.Context) error
}

type ProviderPinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

type HealthService struct {
	DB       DatabasePinger
	Provider ProviderPinger
	Version  string
}

func NewHealthService(db DatabasePinger, provider ProviderPinger, version string) *HealthService {
	return &HealthService{DB: db, Provider: provider, Version: version}
}

// Check reports the database status. An unreachable database is still a
// healthy answer, only a missing database handle fails the check.
func (h *HealthService) Check(ctx context.Context) (*contract.HealthResponse, error) {
	if h.DB == nil {
		return nil, errors.New("health: database not configured")
	}

	status := contract.DatabaseConnected
	if err := h.DB.Ping(ctx); err != nil {
		log.Warnf("health: database ping failed: %v", err)
		status = contract.DatabaseDisconnected
	}

	return &contract.HealthResponse{
		OK:        true,
		Name:      ServiceName,
		Timestamp: utils.FormatEpoch(utils.NowMillis()),
		Database:  status,
		Version:   h.Version,
	}, nil
}

// Unhealthy is the body sent along a 503.
func (h *HealthService) Unhealthy() *contract.HealthResponse {
	return &contract.HealthResponse{
		OK:        false,
		Name:      ServiceName,
		Timestamp: utils.FormatEpoch(utils.NowMillis()),
		Database:  contract.DatabaseDisconnected,
	}
}

func (h *HealthService) CheckProvider(ctx context.Context) *contract.ProviderHealthResponse {
	resp := &contract.ProviderHealthResponse{
		Provider: contract.ProviderReachable,
		BaseURL:  h.Provider.BaseURL(),
	}
	if err := h.Provider.Ping(ctx); err != nil {
		log.Warnf("health: provider ping failed: %v", err)
		resp.Provider = contract.ProviderUnreachable
	}
	return resp
}
