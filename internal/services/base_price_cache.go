package services

import (
	"context"
	"errors"
	"time"

	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"
	"bus-pricing/internal/redis"

	"github.com/shopspring/decimal"
)

type priceCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// CachedTerminalLookup кеширует базовые цены в Redis перед реестром.
// В кеш попадают только найденные терминалы; ошибки кеша не мешают чтению из реестра.
type CachedTerminalLookup struct {
	terminals TerminalLookup
	cache     priceCache
	log       *logger.Logger
	ttl       time.Duration
}

// NewCachedTerminalLookup оборачивает реестр кешем с заданным TTL.
func NewCachedTerminalLookup(terminals TerminalLookup, cache *redis.Client, log *logger.Logger, ttl time.Duration) *CachedTerminalLookup {
	return &CachedTerminalLookup{
		terminals: terminals,
		cache:     cache,
		log:       log,
		ttl:       ttl,
	}
}

// Get сначала читает кеш, при промахе идёт в реестр и сохраняет результат.
func (c *CachedTerminalLookup) Get(ctx context.Context, name string) (*models.Terminal, error) {
	key := redis.GenerateKey(redis.KeyPrefixTerminal, name)

	var cached decimal.Decimal
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return &models.Terminal{TerminalName: name, BasePrice: money.NewAmount(cached)}, nil
	}
	if !errors.Is(err, redis.ErrKeyNotFound) {
		c.log.WithError(err).WithField("key", key).Warn("Base price cache read failed")
	}

	terminal, err := c.terminals.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	c.Warm(ctx, terminal)
	return terminal, nil
}

// Warm кладёт цену терминала в кеш
func (c *CachedTerminalLookup) Warm(ctx context.Context, terminal *models.Terminal) {
	if terminal == nil {
		return
	}
	key := redis.GenerateKey(redis.KeyPrefixTerminal, terminal.TerminalName)
	if err := c.cache.Set(ctx, key, terminal.BasePrice.Decimal, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Base price cache write failed")
	}
}
