package providers

import (
	"context"

	"github.com/odontosys/odontogram-engine/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to chart
// and budget events.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ChartEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ChartEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelBudgetUpdates is the channel for all budget updates
	EventChannelBudgetUpdates = "budget:updates"

	// EventChannelChartPrefix is the prefix for patient-chart channels
	EventChannelChartPrefix = "chart:"
)

// GetChartChannel returns the channel name for a specific patient's chart
func GetChartChannel(patientID string) string {
	return EventChannelChartPrefix + patientID
}
