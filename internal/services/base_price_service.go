package services

import (
	"context"
	"fmt"
	"strings"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/models"

	"github.com/shopspring/decimal"
)

// TerminalLookup читает терминал по точному имени
type TerminalLookup interface {
	Get(ctx context.Context, name string) (*models.Terminal, error)
}

// BasePriceService определяет базовую цену взрослого билета по маршруту.
type BasePriceService struct {
	terminals TerminalLookup
}

// NewBasePriceService создаёт сервис базовых цен.
func NewBasePriceService(terminals TerminalLookup) *BasePriceService {
	return &BasePriceService{terminals: terminals}
}

// GetBasePrice возвращает базовую цену; имя сравнивается с учётом регистра.
func (s *BasePriceService) GetBasePrice(ctx context.Context, route string) (decimal.Decimal, error) {
	if strings.TrimSpace(route) == "" {
		return decimal.Zero, apperror.ForField(apperror.KindValidation, "route", "route must not be blank", route)
	}

	terminal, err := s.terminals.Get(ctx, route)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return decimal.Zero, apperror.ForField(apperror.KindNotFound, "route", "route not found", route)
		}
		return decimal.Zero, fmt.Errorf("failed to resolve base price for %s: %w", route, err)
	}
	return terminal.BasePrice.Decimal, nil
}
