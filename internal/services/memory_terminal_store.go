package services

import (
	"context"
	"sync"

	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/shopspring/decimal"
)

// MemoryTerminalStore реестр терминалов в памяти процесса
type MemoryTerminalStore struct {
	mu        sync.RWMutex
	terminals map[string]decimal.Decimal
}

func NewMemoryTerminalStore() *MemoryTerminalStore {
	return &MemoryTerminalStore{terminals: make(map[string]decimal.Decimal)}
}

func (s *MemoryTerminalStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.terminals[name]
	return ok, nil
}

func (s *MemoryTerminalStore) Create(ctx context.Context, name string, basePrice decimal.Decimal) (*models.Terminal, error) {
	if err := validateTerminal(name, basePrice); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terminals[name]; ok {
		return nil, terminalExists(name)
	}
	price := money.NewAmount(basePrice)
	s.terminals[name] = price.Decimal
	return &models.Terminal{TerminalName: name, BasePrice: price}, nil
}

func (s *MemoryTerminalStore) Get(ctx context.Context, name string) (*models.Terminal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.terminals[name]
	if !ok {
		return nil, terminalNotFound(name)
	}
	return &models.Terminal{TerminalName: name, BasePrice: money.Amount{Decimal: price}}, nil
}
