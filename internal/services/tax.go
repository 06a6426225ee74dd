package services

import (
	"bus-pricing/internal/models"

	"github.com/shopspring/decimal"
)

// TaxSummary сумма ставок налогов и множитель для цены без налога
type TaxSummary struct {
	PercentSum decimal.Decimal
	Multiplier decimal.Decimal
}

// AggregateTaxes складывает ставки (без сложных процентов): multiplier = 1 + sum/100.
// Пустой список даёт 0 и 1.
func AggregateTaxes(rates []models.TaxRate) TaxSummary {
	sum := decimal.Zero
	for _, rate := range rates {
		sum = sum.Add(rate.RatePercent)
	}
	return TaxSummary{
		PercentSum: sum,
		Multiplier: decimal.NewFromInt(1).Add(sum.Shift(-2)),
	}
}
