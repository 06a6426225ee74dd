package services

import (
	"context"
	"errors"
	"testing"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "debug", Format: "json"})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func taxRates(percents ...string) []models.TaxRate {
	rates := make([]models.TaxRate, 0, len(percents))
	for i, p := range percents {
		rates = append(rates, models.TaxRate{Name: string(rune('A' + i)), RatePercent: dec(p)})
	}
	return rates
}

type stubBasePrices struct {
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubBasePrices) GetBasePrice(ctx context.Context, route string) (decimal.Decimal, error) {
	s.calls++
	return s.price, s.err
}

type stubTaxRates struct {
	rates []models.TaxRate
	err   error
	date  *models.Date
}

func (s *stubTaxRates) GetTaxRates(ctx context.Context, date *models.Date) ([]models.TaxRate, error) {
	s.date = date
	return s.rates, s.err
}

type recordedDraft struct {
	outcome string
	items   int
}

type stubRecorder struct {
	drafts []recordedDraft
}

func (s *stubRecorder) ObserveDraft(outcome string, items int) {
	s.drafts = append(s.drafts, recordedDraft{outcome: outcome, items: items})
}

func assertPrices(t *testing.T, items []models.ItemPrice, want ...string) {
	t.Helper()
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(items), items)
	}
	for i, w := range want {
		if !items[i].Price.Equal(dec(w)) {
			t.Fatalf("item %d: expected %s, got %s", i, w, items[i].Price.StringFixed(2))
		}
	}
}

func TestPriceLineItems_AdultAndChildWithLuggage(t *testing.T) {
	passengers := []models.Passenger{
		{Type: models.PassengerTypeAdult, LuggageCount: 2},
		{Type: models.PassengerTypeChild, LuggageCount: 1},
	}

	items, err := PriceLineItems(dec("10.00"), AggregateTaxes(taxRates("21")), passengers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrices(t, items, "12.10", "7.26", "6.05", "3.63")

	if total := TotalPrice(items); !total.Equal(dec("29.04")) {
		t.Fatalf("expected total 29.04, got %s", total)
	}

	wantDescriptions := []string{
		"Passenger 1 (ADULT)",
		"Luggage for passenger 1 (Two bags)",
		"Passenger 2 (CHILD)",
		"Luggage for passenger 2 (One bag)",
	}
	for i, d := range wantDescriptions {
		if items[i].Description != d {
			t.Fatalf("item %d: expected description %q, got %q", i, d, items[i].Description)
		}
	}

	if items[0].PriceDescription != "Adult (10.00 EUR + 21%) = 12.10 EUR" {
		t.Fatalf("unexpected adult price description %q", items[0].PriceDescription)
	}
	if items[1].PriceDescription != "Two bags (2 x 10.00 EUR x 30% + 21%) = 7.26 EUR" {
		t.Fatalf("unexpected luggage price description %q", items[1].PriceDescription)
	}
	if items[2].PriceDescription != "Child (10.00 EUR x 50% + 21%) = 6.05 EUR" {
		t.Fatalf("unexpected child price description %q", items[2].PriceDescription)
	}
}

func TestPriceLineItems_TwoTaxesNoLuggage(t *testing.T) {
	passengers := []models.Passenger{{Type: models.PassengerTypeAdult}}

	items, err := PriceLineItems(dec("10.00"), AggregateTaxes(taxRates("21", "2")), passengers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrices(t, items, "12.30")
	if total := TotalPrice(items); !total.Equal(dec("12.30")) {
		t.Fatalf("expected total 12.30, got %s", total)
	}
}

func TestPriceLineItems_NoPassengers(t *testing.T) {
	items, err := PriceLineItems(dec("10.00"), AggregateTaxes(taxRates("21")), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", items)
	}
	if total := TotalPrice(items); !total.Equal(decimal.Zero) || total.StringFixed(2) != "0.00" {
		t.Fatalf("expected total 0.00, got %s", total)
	}
}

func TestPriceLineItems_HigherBase(t *testing.T) {
	passengers := []models.Passenger{
		{Type: models.PassengerTypeAdult, LuggageCount: 1},
		{Type: models.PassengerTypeChild, LuggageCount: 2},
	}

	items, err := PriceLineItems(dec("80.00"), AggregateTaxes(taxRates("12", "3")), passengers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrices(t, items, "92.00", "27.60", "46.00", "55.20")
	if total := TotalPrice(items); !total.Equal(dec("220.80")) {
		t.Fatalf("expected total 220.80, got %s", total)
	}
}

func TestPriceLineItems_RoundsHalfUpPerItem(t *testing.T) {
	// 0.05 * 1.5 = 0.075 -> 0.08
	items, err := PriceLineItems(dec("0.05"), AggregateTaxes(taxRates("50")), []models.Passenger{{Type: models.PassengerTypeAdult}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrices(t, items, "0.08")
}

func TestPriceLineItems_OrderFollowsInput(t *testing.T) {
	passengers := []models.Passenger{
		{Type: models.PassengerTypeChild},
		{Type: models.PassengerTypeAdult, LuggageCount: 3},
		{Type: models.PassengerTypeChild, LuggageCount: 1},
	}

	items, err := PriceLineItems(dec("10"), AggregateTaxes(nil), passengers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Passenger 1 (CHILD)",
		"Passenger 2 (ADULT)",
		"Luggage for passenger 2 (3 bags)",
		"Passenger 3 (CHILD)",
		"Luggage for passenger 3 (One bag)",
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, d := range want {
		if items[i].Description != d {
			t.Fatalf("item %d: expected %q, got %q", i, d, items[i].Description)
		}
		if items[i].Price.IsNegative() {
			t.Fatalf("item %d has negative price", i)
		}
	}
	assertPrices(t, items, "5.00", "10.00", "9.00", "5.00", "3.00")
}

func TestPriceLineItems_InvalidPassengers(t *testing.T) {
	passengers := []models.Passenger{
		{Type: models.PassengerTypeAdult, LuggageCount: -1},
		{Type: "SENIOR", LuggageCount: 101},
	}

	items, err := PriceLineItems(dec("10"), AggregateTaxes(taxRates("21")), passengers)
	if items != nil {
		t.Fatalf("expected no partial result, got %+v", items)
	}
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fields := apperror.Fields(err)
	if len(fields) != 3 {
		t.Fatalf("expected 3 field errors, got %+v", fields)
	}
	if fields[0].Field != "passengers[0].luggageCount" || fields[1].Field != "passengers[1].type" || fields[2].Field != "passengers[1].luggageCount" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestPriceLineItems_Idempotent(t *testing.T) {
	passengers := []models.Passenger{{Type: models.PassengerTypeChild, LuggageCount: 7}}
	taxes := AggregateTaxes(taxRates("19.5"))

	first, err := PriceLineItems(dec("13.37"), taxes, passengers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := PriceLineItems(dec("13.37"), taxes, passengers)
	for i := range first {
		if !first[i].Price.Equal(second[i].Price.Decimal) {
			t.Fatalf("item %d differs between runs", i)
		}
		if !first[i].Price.Equal(first[i].Price.Round(2)) {
			t.Fatalf("item %d has more than 2 decimals: %s", i, first[i].Price.String())
		}
	}
}

func TestTotalPrice_EqualsSumOfItems(t *testing.T) {
	items := []models.ItemPrice{}
	for _, p := range []string{"0.01", "0.02", "99.99"} {
		items = append(items, models.ItemPrice{Price: money.RequireAmount(p)})
	}
	if total := TotalPrice(items); !total.Equal(dec("100.02")) {
		t.Fatalf("expected 100.02, got %s", total)
	}
}

func TestPricingService_CalculateDraftPrice(t *testing.T) {
	basePrices := &stubBasePrices{price: dec("10.00")}
	rates := &stubTaxRates{rates: taxRates("21")}
	recorder := &stubRecorder{}
	service := NewPricingService(basePrices, rates, newTestLogger(), &config.PricingConfig{Descriptions: true}, recorder)

	date := models.NewDate(2025, 6, 1)
	req := &models.DraftPriceRequest{
		Route: "Vilnius, Lithuania",
		Date:  &date,
		Passengers: []models.Passenger{
			{Type: models.PassengerTypeAdult, LuggageCount: 2},
			{Type: models.PassengerTypeChild, LuggageCount: 1},
		},
	}

	resp, err := service.CalculateDraftPrice(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPrices(t, resp.Items, "12.10", "7.26", "6.05", "3.63")
	if !resp.TotalPrice.Equal(dec("29.04")) || resp.TotalPriceDescription != "29.04 EUR" {
		t.Fatalf("unexpected total %s (%s)", resp.TotalPrice.String(), resp.TotalPriceDescription)
	}
	if rates.date == nil || !rates.date.Equal(date.Time) {
		t.Fatalf("expected request date to reach tax provider")
	}
	if basePrices.calls != 1 {
		t.Fatalf("expected one base price lookup, got %d", basePrices.calls)
	}
	if len(recorder.drafts) != 1 || recorder.drafts[0] != (recordedDraft{outcome: OutcomeOK, items: 4}) {
		t.Fatalf("unexpected recorded drafts %+v", recorder.drafts)
	}
}

func TestPricingService_DescriptionsDisabled(t *testing.T) {
	service := NewPricingService(&stubBasePrices{price: dec("10")}, &stubTaxRates{rates: taxRates("21")}, newTestLogger(), &config.PricingConfig{Descriptions: false}, nil)

	resp, err := service.CalculateDraftPrice(context.Background(), &models.DraftPriceRequest{
		Route:      "Riga",
		Passengers: []models.Passenger{{Type: models.PassengerTypeAdult, LuggageCount: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalPriceDescription != "" {
		t.Fatalf("expected no total description, got %q", resp.TotalPriceDescription)
	}
	for _, item := range resp.Items {
		if item.PriceDescription != "" || item.Description == "" {
			t.Fatalf("unexpected item descriptions %+v", item)
		}
	}
}

func TestPricingService_RouteNotFound(t *testing.T) {
	notFound := apperror.ForField(apperror.KindNotFound, "route", "route not found", "Nowhere")
	recorder := &stubRecorder{}
	rates := &stubTaxRates{rates: taxRates("21")}
	service := NewPricingService(&stubBasePrices{err: notFound}, rates, newTestLogger(), nil, recorder)

	resp, err := service.CalculateDraftPrice(context.Background(), &models.DraftPriceRequest{
		Route:      "Nowhere",
		Passengers: []models.Passenger{{Type: models.PassengerTypeAdult}},
	})
	if resp != nil {
		t.Fatalf("expected no response, got %+v", resp)
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if rates.date != nil {
		t.Fatalf("tax provider must not be called")
	}
	if len(recorder.drafts) != 1 || recorder.drafts[0].outcome != OutcomeNotFound {
		t.Fatalf("unexpected recorded drafts %+v", recorder.drafts)
	}
}

func TestPricingService_TaxProviderFailure(t *testing.T) {
	service := NewPricingService(&stubBasePrices{price: dec("10")}, &stubTaxRates{err: errors.New("boom")}, newTestLogger(), nil, nil)

	_, err := service.CalculateDraftPrice(context.Background(), &models.DraftPriceRequest{
		Route:      "Riga",
		Passengers: []models.Passenger{{Type: models.PassengerTypeAdult}},
	})
	if err == nil || apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected unexpected error, got %v", err)
	}
	if outcomeOf(err) != OutcomeError {
		t.Fatalf("expected error outcome, got %s", outcomeOf(err))
	}
}

func TestPricingService_NilRequest(t *testing.T) {
	service := NewPricingService(&stubBasePrices{}, &stubTaxRates{}, newTestLogger(), nil, nil)
	if _, err := service.CalculateDraftPrice(context.Background(), nil); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
