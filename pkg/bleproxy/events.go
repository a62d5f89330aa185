package bleproxy

import "github.com/bft-labs/bleproxy/internal/app"

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchSentEvent describes one delivered advertisement batch.
type BatchSentEvent struct {
	// Advertisements is the number of advertisements in the batch.
	Advertisements int
	// Sessions is the number of subscribed clients that received it.
	Sessions int
}

// EventHandler receives proxy events. Methods are called synchronously and
// some state changes fire while Start holds the proxy lock, so a handler may
// call Status and StateInfo but no other Proxy method.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatchSent(event BatchSentEvent)
}

// BaseEventHandler implements EventHandler with no-ops.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnBatchSent(BatchSentEvent)     {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) onFlush(advertisements, sessions int) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchSent(BatchSentEvent{
		Advertisements: advertisements,
		Sessions:       sessions,
	})
}
