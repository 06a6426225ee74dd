package models

import (
	"fmt"
	"strings"
	"time"

	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

// PassengerType тип пассажира
type PassengerType string

const (
	PassengerTypeAdult PassengerType = "ADULT"
	PassengerTypeChild PassengerType = "CHILD"
)

// Допустимый диапазон количества багажа на пассажира
const (
	MinLuggageCount = 0
	MaxLuggageCount = 100
)

// Valid сообщает, известен ли тип
func (t PassengerType) Valid() bool {
	return t == PassengerTypeAdult || t == PassengerTypeChild
}

// Passenger пассажир в запросе предварительной цены
type Passenger struct {
	Type         PassengerType `json:"type" validate:"required,oneof=ADULT CHILD"`
	LuggageCount int           `json:"luggageCount" validate:"min=0,max=100"`
}

// TaxRate налог с процентной ставкой (21 означает 21%)
type TaxRate struct {
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"ratePercent"`
}

// DraftPriceRequest запрос на расчёт предварительной цены
type DraftPriceRequest struct {
	Route      string      `json:"route" validate:"required,notblank"`
	Date       *Date       `json:"date,omitempty"`
	Passengers []Passenger `json:"passengers" validate:"required,min=1,dive"`
}

// ItemPrice позиция расчёта: проезд пассажира или его багаж
type ItemPrice struct {
	Description      string       `json:"description"`
	Price            money.Amount `json:"price"`
	PriceDescription string       `json:"priceDescription,omitempty"`
}

// DraftPriceResponse результат расчёта
type DraftPriceResponse struct {
	Items                 []ItemPrice  `json:"items"`
	TotalPrice            money.Amount `json:"totalPrice"`
	TotalPriceDescription string       `json:"totalPriceDescription,omitempty"`
}

// DateLayout формат даты в запросах (ISO-8601)
const DateLayout = "2006-01-02"

// Date календарная дата без времени
type Date struct {
	time.Time
}

// NewDate создаёт дату в UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateError некорректная дата в теле запроса
type DateError struct {
	Value string
	Err   error
}

func (e *DateError) Error() string { return e.Err.Error() }

func (e *DateError) Unwrap() error { return e.Err }

// ParseDate разбирает дату формата 2006-01-02
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String форматирует дату как 2006-01-02
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON форматирует дату как "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON принимает "2006-01-02" или null
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	raw := strings.Trim(s, `"`)
	parsed, err := ParseDate(raw)
	if err != nil {
		return &DateError{Value: raw, Err: err}
	}
	*d = parsed
	return nil
}
