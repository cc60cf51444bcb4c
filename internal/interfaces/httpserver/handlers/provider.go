package handlers

import (
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/domain/delivery"
	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/domain/upload"
)

// Provider wires HTTP handlers.
type Provider struct {
	Upload     *UploadHandler
	Profile    *ProfileHandler
	Conversion *ConversionHandler
	Delivery   *DeliveryHandler
	History    *HistoryHandler
}

// Deps carries every domain service the HTTP layer fronts.
type Deps struct {
	Uploads      *upload.Service
	Registry     *profile.Registry
	Sessions     *profile.Sessions
	Orchestrator *conversion.Orchestrator
	Delivery     *delivery.Service
	History      *history.Service
	Storage      HistoryStorage
}

func NewProvider(cfg *config.Config, deps Deps, log zerolog.Logger) *Provider {
	return &Provider{
		Upload:     NewUploadHandler(cfg, deps.Uploads, log),
		Profile:    NewProfileHandler(deps.Registry, deps.Sessions, log),
		Conversion: NewConversionHandler(deps.Orchestrator, deps.Sessions, log),
		Delivery:   NewDeliveryHandler(deps.Orchestrator, deps.Delivery, log),
		History:    NewHistoryHandler(deps.History, deps.Storage, log),
	}
}
