package services

import (
	"context"
	"fmt"
	"strings"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

// TerminalRegistry хранит базовые цены терминалов. Существующая запись не перезаписывается.
type TerminalRegistry interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string, basePrice decimal.Decimal) (*models.Terminal, error)
	Get(ctx context.Context, name string) (*models.Terminal, error)
}

func validateTerminal(name string, basePrice decimal.Decimal) error {
	var fields []apperror.FieldError
	if strings.TrimSpace(name) == "" {
		fields = append(fields, apperror.FieldError{Field: "terminalName", Message: "must not be blank", Rejected: name})
	}
	var rejected interface{}
	if money.Bounded(basePrice) {
		rejected = basePrice.String()
	}
	switch {
	case !money.Precise(basePrice):
		fields = append(fields, apperror.FieldError{Field: "basePrice", Message: fmt.Sprintf("must have at most %d fraction digits", money.MaxFractionDigits)})
	case basePrice.IsNegative():
		fields = append(fields, apperror.FieldError{Field: "basePrice", Message: "must be greater than or equal to 0", Rejected: rejected})
	case !money.Bounded(basePrice):
		fields = append(fields, apperror.FieldError{Field: "basePrice", Message: "must be less than or equal to " + money.Format(money.MaxAmount)})
	}
	return apperror.Invalid("Validation failed", fields)
}

func terminalExists(name string) error {
	return apperror.ForField(apperror.KindConflict, "terminalName", "terminal already exists", name)
}

func terminalNotFound(name string) error {
	return apperror.ForField(apperror.KindNotFound, "terminalName", "terminal not found", name)
}
