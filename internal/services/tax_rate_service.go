package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/models"

	"github.com/shopspring/decimal"
)

// TaxRateService отдаёт налоги, действующие на дату покупки.
// Ставка без границ действует всегда; границы from/to включительные.
type TaxRateService struct {
	rates []datedTaxRate
	now   func() time.Time
}

type datedTaxRate struct {
	rate models.TaxRate
	from *models.Date
	to   *models.Date
}

// NewTaxRateService разбирает ставки из конфигурации
func NewTaxRateService(cfg *config.TaxConfig) (*TaxRateService, error) {
	s := &TaxRateService{now: time.Now}
	if cfg == nil {
		return s, nil
	}

	for _, rc := range cfg.Rates {
		rate, err := parseDatedTaxRate(rc)
		if err != nil {
			return nil, err
		}
		s.rates = append(s.rates, rate)
	}
	return s, nil
}

func parseDatedTaxRate(rc config.TaxRateConfig) (datedTaxRate, error) {
	name := strings.TrimSpace(rc.Name)
	if name == "" {
		return datedTaxRate{}, fmt.Errorf("tax rate name is required")
	}

	percent, err := decimal.NewFromString(rc.Percent)
	if err != nil {
		return datedTaxRate{}, fmt.Errorf("invalid percent for tax %s: %w", name, err)
	}
	if percent.IsNegative() {
		return datedTaxRate{}, fmt.Errorf("percent for tax %s must be non-negative", name)
	}

	rate := datedTaxRate{rate: models.TaxRate{Name: name, RatePercent: percent}}
	if rc.From != "" {
		from, err := models.ParseDate(rc.From)
		if err != nil {
			return datedTaxRate{}, fmt.Errorf("tax %s: %w", name, err)
		}
		rate.from = &from
	}
	if rc.To != "" {
		to, err := models.ParseDate(rc.To)
		if err != nil {
			return datedTaxRate{}, fmt.Errorf("tax %s: %w", name, err)
		}
		rate.to = &to
	}
	if rate.from != nil && rate.to != nil && rate.to.Before(rate.from.Time) {
		return datedTaxRate{}, fmt.Errorf("tax %s: validity ends before it starts", name)
	}
	return rate, nil
}

// GetTaxRates возвращает ставки на дату; nil означает сегодня
func (s *TaxRateService) GetTaxRates(ctx context.Context, date *models.Date) ([]models.TaxRate, error) {
	day := s.today()
	if date != nil {
		day = *date
	}

	rates := make([]models.TaxRate, 0, len(s.rates))
	for _, r := range s.rates {
		if r.appliesOn(day) {
			rates = append(rates, r.rate)
		}
	}
	return rates, nil
}

func (s *TaxRateService) today() models.Date {
	now := s.now().UTC()
	return models.NewDate(now.Year(), now.Month(), now.Day())
}

func (r datedTaxRate) appliesOn(day models.Date) bool {
	if r.from != nil && day.Before(r.from.Time) {
		return false
	}
	if r.to != nil && day.After(r.to.Time) {
		return false
	}
	return true
}
