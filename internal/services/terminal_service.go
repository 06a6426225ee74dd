package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bus-pricing/internal/database"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// TerminalService реестр терминалов в PostgreSQL.
type TerminalService struct {
	db  *database.DB
	log *logger.Logger
}

// NewTerminalService создаёт реестр поверх подключения к базе.
func NewTerminalService(db *database.DB, log *logger.Logger) *TerminalService {
	return &TerminalService{
		db:  db,
		log: log,
	}
}

// Exists проверяет наличие терминала.
func (s *TerminalService) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM bus_terminals WHERE terminal_name = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check terminal: %w", err)
	}
	return exists, nil
}

// Create регистрирует терминал. Повторная регистрация отклоняется.
func (s *TerminalService) Create(ctx context.Context, name string, basePrice decimal.Decimal) (*models.Terminal, error) {
	if err := validateTerminal(name, basePrice); err != nil {
		return nil, err
	}

	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, terminalExists(name)
	}

	terminal := &models.Terminal{TerminalName: name, BasePrice: money.NewAmount(basePrice)}

	query := `
		INSERT INTO bus_terminals (terminal_name, base_price)
		VALUES ($1, $2)
	`
	if _, err := s.db.ExecContext(ctx, query, terminal.TerminalName, money.Format(terminal.BasePrice.Decimal)); err != nil {
		// между проверкой и вставкой терминал мог создать другой запрос
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, terminalExists(name)
		}
		return nil, fmt.Errorf("failed to create terminal: %w", err)
	}

	s.log.WithField("terminal_name", name).Info("Terminal created")
	return terminal, nil
}

// Get возвращает терминал по точному имени.
func (s *TerminalService) Get(ctx context.Context, name string) (*models.Terminal, error) {
	terminal := &models.Terminal{}
	err := s.db.QueryRowContext(ctx, "SELECT terminal_name, base_price FROM bus_terminals WHERE terminal_name = $1", name).
		Scan(&terminal.TerminalName, &terminal.BasePrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, terminalNotFound(name)
		}
		return nil, fmt.Errorf("failed to get terminal: %w", err)
	}
	return terminal, nil
}
