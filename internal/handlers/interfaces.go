package handlers

import (
	"context"

	"bus-pricing/internal/models"

	"github.com/shopspring/decimal"
)

// ----- Pricing -----

type DraftPricer interface {
	CalculateDraftPrice(ctx context.Context, req *models.DraftPriceRequest) (*models.DraftPriceResponse, error)
}

// ----- Terminals -----

type TerminalStore interface {
	Create(ctx context.Context, name string, basePrice decimal.Decimal) (*models.Terminal, error)
	Get(ctx context.Context, name string) (*models.Terminal, error)
}

// ----- Events -----

type EventProducer interface {
	PublishTerminalCreated(terminal *models.Terminal) error
	PublishPriceDrafted(route string, resp *models.DraftPriceResponse) error
}

type EventMetrics interface {
	ObserveTerminalCreated()
	ObservePublishFailure(eventType string)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
