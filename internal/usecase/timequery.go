package usecase

import (
	"context"
	"time"

	"airline-assistant-service/internal/domain/entity"
)

// TimeCapability reports the current time in the service's zone
type TimeCapability struct {
	location *time.Location
	clock    Clock
}

func NewTimeCapability(location *time.Location, clock Clock) *TimeCapability {
	if location == nil {
		location = time.UTC
	}
	return &TimeCapability{location: location, clock: clock}
}

func (c *TimeCapability) Invoke(ctx context.Context, req entity.CapabilityRequest) (*entity.CapabilityResult, error) {
	now := c.clock.now().In(c.location)
	return &entity.CapabilityResult{
		Intent: entity.IntentTimeQuery,
		Text:   "The current time is " + now.Format("03:04 PM MST on Monday, 02 January 2006") + ".",
	}, nil
}
