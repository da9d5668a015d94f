package server

import (
	"context"

	"nba-ingest-service/internal/poller"
)

// Poller defines the minimal poller behavior needed by the server.
type Poller interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() poller.Status
}

// disabledPoller stands in when scheduled polling is turned off.
type disabledPoller struct{}

func (disabledPoller) Start(context.Context)      {}
func (disabledPoller) Stop(context.Context) error { return nil }
func (disabledPoller) Status() poller.Status      { return poller.Status{} }
