package services

import (
	"fmt"

	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

// PassengerDescription описание позиции проезда, index начинается с 1
func PassengerDescription(index int, passengerType models.PassengerType) string {
	return fmt.Sprintf("Passenger %d (%s)", index, passengerType)
}

// LuggageDescription описание позиции багажа пассажира
func LuggageDescription(index, luggageCount int) string {
	return fmt.Sprintf("Luggage for passenger %d (%s)", index, BagPhrase(luggageCount))
}

// BagPhrase 1 -> "One bag", 2 -> "Two bags", иначе "<n> bags"
func BagPhrase(count int) string {
	switch count {
	case 1:
		return "One bag"
	case 2:
		return "Two bags"
	default:
		return fmt.Sprintf("%d bags", count)
	}
}

// PassengerPriceDescription показывает, как получена цена проезда
func PassengerPriceDescription(passengerType models.PassengerType, base, price, taxPercent decimal.Decimal) string {
	if passengerType == models.PassengerTypeChild {
		return fmt.Sprintf("Child (%s %s x %s%% + %s%%) = %s",
			money.Format(base), money.Currency,
			money.FormatPercent(childFareFactor.Shift(2)),
			money.FormatPercent(taxPercent),
			TotalDescription(price))
	}
	return fmt.Sprintf("Adult (%s %s + %s%%) = %s",
		money.Format(base), money.Currency,
		money.FormatPercent(taxPercent),
		TotalDescription(price))
}

// LuggagePriceDescription показывает, как получена цена багажа
func LuggagePriceDescription(luggageCount int, base, price, taxPercent decimal.Decimal) string {
	return fmt.Sprintf("%s (%d x %s %s x %s%% + %s%%) = %s",
		BagPhrase(luggageCount), luggageCount,
		money.Format(base), money.Currency,
		money.FormatPercent(luggageFareFactor.Shift(2)),
		money.FormatPercent(taxPercent),
		TotalDescription(price))
}

// TotalDescription форматирует сумму: "29.04 EUR"
func TotalDescription(amount decimal.Decimal) string {
	return money.Format(amount) + " " + money.Currency
}
