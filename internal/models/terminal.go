package models

import "bus-pricing/internal/money"

// Terminal автовокзал (маршрут) с базовой ценой взрослого билета
type Terminal struct {
	TerminalName string       `json:"terminalName" db:"terminal_name"`
	BasePrice    money.Amount `json:"basePrice" db:"base_price"`
}

// CreateTerminalRequest запрос на регистрацию терминала
type CreateTerminalRequest struct {
	TerminalName string        `json:"terminalName" validate:"required,notblank"`
	BasePrice    *money.Amount `json:"basePrice" validate:"required,gte=0,lte=9999999999.99"`
}
