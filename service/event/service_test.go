package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forgekit/forge/service/messaging/memory"
)

type composedPayload struct {
	Identifier string
}

func newMemoryService(t *testing.T) *Service {
	t.Helper()
	service, err := New("memory", WithNewMemoryQueueConfig(func(name string) memory.Config {
		return memory.DefaultConfig()
	}))
	assert.Nil(t, err)
	return service
}

func TestTypedPublishAndListen(t *testing.T) {
	service := newMemoryService(t)

	var mu sync.Mutex
	var received []*Event[composedPayload]
	err := SetListenerOf(service, func(event *Event[composedPayload]) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
	})
	assert.Nil(t, err)

	publisher, err := PublisherOf[composedPayload](service)
	assert.Nil(t, err)

	eventContext := &Context{RunID: "run-1", Namespace: "foo:app", EventType: "composed"}
	err = publisher.Publish(context.Background(), NewEvent(eventContext, composedPayload{Identifier: "foo:app#/pkgs/foo"}))
	assert.Nil(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		count := len(received)
		mu.Unlock()
		if count > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if assert.Equal(t, 1, len(received)) {
		assert.Equal(t, "foo:app#/pkgs/foo", received[0].Data.Identifier)
		assert.Equal(t, "run-1", received[0].Context.RunID)
		assert.Equal(t, "composed", received[0].Context.EventType)
	}
}

func TestNewRequiresQueueConfig(t *testing.T) {
	_, err := New("memory")
	assert.NotNil(t, err)
	_, err = New("rabbit")
	assert.NotNil(t, err)
}
