package forge

import (
	"context"
	"log"

	"github.com/forgekit/forge/service/event"
)

// RunStarted is published when an environment run begins.
type RunStarted struct {
	RunID     string `json:"runID"`
	Namespace string `json:"namespace"`
}

// RunEnded is published when an environment run finishes, successfully or
// not.
type RunEnded struct {
	RunID     string `json:"runID"`
	Namespace string `json:"namespace"`
	Error     string `json:"error,omitempty"`
}

// Composed is published exactly once per composed generator identity.
type Composed struct {
	RunID      string `json:"runID"`
	Identifier string `json:"identifier"`
	Namespace  string `json:"namespace"`
	Location   string `json:"location"`
}

// SchedulerPaused is published when a task failure pauses the run loop.
type SchedulerPaused struct {
	RunID string `json:"runID"`
	Error string `json:"error"`
}

// SchedulerError carries the task error that paused the run loop. It also
// signals the interactive adapter to stop waiting for input.
type SchedulerError struct {
	RunID string `json:"runID"`
	Error string `json:"error"`
}

func publishEvent[T any](ctx context.Context, service *event.Service, eventContext *event.Context, data T) {
	if service == nil {
		return
	}
	publisher, err := event.PublisherOf[T](service)
	if err != nil {
		log.Printf("failed to resolve publisher for %T: %v", data, err)
		return
	}
	if err = publisher.Publish(ctx, event.NewEvent(eventContext, data)); err != nil {
		log.Printf("failed to publish %T: %v", data, err)
	}
}
