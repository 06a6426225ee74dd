package services

import (
	"context"
	"fmt"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

var (
	// детский билет стоит половину базовой цены
	childFareFactor = decimal.RequireFromString("0.50")
	// каждое место багажа стоит 30% базовой цены независимо от типа пассажира
	luggageFareFactor = decimal.RequireFromString("0.30")
)

// Итоги расчёта для метрик
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeValidation = "validation"
	OutcomeError      = "error"
)

// BasePriceResolver отдаёт базовую цену маршрута
type BasePriceResolver interface {
	GetBasePrice(ctx context.Context, route string) (decimal.Decimal, error)
}

// TaxRateProvider отдаёт налоги на дату
type TaxRateProvider interface {
	GetTaxRates(ctx context.Context, date *models.Date) ([]models.TaxRate, error)
}

// DraftRecorder считает расчёты цены
type DraftRecorder interface {
	ObserveDraft(outcome string, items int)
}

// PricingService рассчитывает предварительную цену поездки.
type PricingService struct {
	basePrices   BasePriceResolver
	taxRates     TaxRateProvider
	log          *logger.Logger
	recorder     DraftRecorder
	descriptions bool
}

// NewPricingService создаёт сервис расчёта. recorder может быть nil.
func NewPricingService(basePrices BasePriceResolver, taxRates TaxRateProvider, log *logger.Logger, cfg *config.PricingConfig, recorder DraftRecorder) *PricingService {
	descriptions := true
	if cfg != nil {
		descriptions = cfg.Descriptions
	}
	return &PricingService{
		basePrices:   basePrices,
		taxRates:     taxRates,
		log:          log,
		recorder:     recorder,
		descriptions: descriptions,
	}
}

// CalculateDraftPrice считает позиции и итог для маршрута и списка пассажиров.
func (s *PricingService) CalculateDraftPrice(ctx context.Context, req *models.DraftPriceRequest) (*models.DraftPriceResponse, error) {
	resp, err := s.calculate(ctx, req)
	items := 0
	if resp != nil {
		items = len(resp.Items)
	}
	if s.recorder != nil {
		s.recorder.ObserveDraft(outcomeOf(err), items)
	}
	return resp, err
}

func (s *PricingService) calculate(ctx context.Context, req *models.DraftPriceRequest) (*models.DraftPriceResponse, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}

	base, err := s.basePrices.GetBasePrice(ctx, req.Route)
	if err != nil {
		return nil, err
	}

	rates, err := s.taxRates.GetTaxRates(ctx, req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax rates: %w", err)
	}
	taxes := AggregateTaxes(rates)

	items, err := PriceLineItems(base, taxes, req.Passengers)
	if err != nil {
		return nil, err
	}

	total := TotalPrice(items)
	resp := &models.DraftPriceResponse{
		Items:      items,
		TotalPrice: money.NewAmount(total),
	}
	if s.descriptions {
		resp.TotalPriceDescription = TotalDescription(total)
	} else {
		for i := range resp.Items {
			resp.Items[i].PriceDescription = ""
		}
	}

	if s.log != nil {
		s.log.WithRoute(req.Route).WithField("items", len(items)).WithField("total", money.Format(total)).Debug("Draft price calculated")
	}
	return resp, nil
}

// PriceLineItems строит позиции: для каждого пассажира проезд, затем багаж (если он есть).
// Каждая позиция округляется один раз после применения налога.
func PriceLineItems(base decimal.Decimal, taxes TaxSummary, passengers []models.Passenger) ([]models.ItemPrice, error) {
	if err := validatePassengers(passengers); err != nil {
		return nil, err
	}

	items := make([]models.ItemPrice, 0, 2*len(passengers))
	for i, p := range passengers {
		index := i + 1

		fare := base
		if p.Type == models.PassengerTypeChild {
			fare = base.Mul(childFareFactor)
		}
		price := applyTax(fare, taxes.Multiplier)
		items = append(items, models.ItemPrice{
			Description:      PassengerDescription(index, p.Type),
			Price:            money.NewAmount(price),
			PriceDescription: PassengerPriceDescription(p.Type, base, price, taxes.PercentSum),
		})

		if p.LuggageCount > 0 {
			luggage := base.Mul(luggageFareFactor).Mul(decimal.NewFromInt(int64(p.LuggageCount)))
			price := applyTax(luggage, taxes.Multiplier)
			items = append(items, models.ItemPrice{
				Description:      LuggageDescription(index, p.LuggageCount),
				Price:            money.NewAmount(price),
				PriceDescription: LuggagePriceDescription(p.LuggageCount, base, price, taxes.PercentSum),
			})
		}
	}
	return items, nil
}

// TotalPrice сумма позиций, округлённая до 2 знаков
func TotalPrice(items []models.ItemPrice) decimal.Decimal {
	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = item.Price.Decimal
	}
	return money.Round(money.Sum(prices...))
}

func applyTax(preTax, multiplier decimal.Decimal) decimal.Decimal {
	return money.Round(preTax.Mul(multiplier))
}

func validatePassengers(passengers []models.Passenger) error {
	var fields []apperror.FieldError
	for i, p := range passengers {
		if !p.Type.Valid() {
			fields = append(fields, apperror.FieldError{
				Field:    fmt.Sprintf("passengers[%d].type", i),
				Message:  "Passenger type must be one of ADULT, CHILD",
				Rejected: string(p.Type),
			})
		}
		if p.LuggageCount < models.MinLuggageCount {
			fields = append(fields, apperror.FieldError{
				Field:    fmt.Sprintf("passengers[%d].luggageCount", i),
				Message:  "Luggage count must be greater than or equal to 0",
				Rejected: p.LuggageCount,
			})
		}
		if p.LuggageCount > models.MaxLuggageCount {
			fields = append(fields, apperror.FieldError{
				Field:    fmt.Sprintf("passengers[%d].luggageCount", i),
				Message:  "Luggage count must be less than or equal to 100",
				Rejected: p.LuggageCount,
			})
		}
	}
	return apperror.Invalid("Validation failed", fields)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case apperror.Is(err, apperror.KindNotFound):
		return OutcomeNotFound
	case apperror.Is(err, apperror.KindValidation):
		return OutcomeValidation
	default:
		return OutcomeError
	}
}
