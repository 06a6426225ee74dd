package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события в Kafka
type EventType string

const (
	EventTypeTerminalCreated EventType = "terminal.created"
	EventTypePriceDrafted    EventType = "price.drafted"
)

// Event конверт события
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}
