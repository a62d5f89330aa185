package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
	"github.com/bft-labs/bleproxy/pkg/wire"
)

// DefaultFlushInterval is how long a non-empty batch may wait before the
// timer path flushes it.
const DefaultFlushInterval = 100 * time.Millisecond

// Broadcaster delivers an encoded frame to a set of sessions.
// *Registry satisfies this interface.
type Broadcaster interface {
	Broadcast(typ api.MessageType, payload []byte, filter SessionFilter) int
}

// QueueStats counts queue activity.
type QueueStats struct {
	Enqueued       uint64
	Flushes        uint64
	DroppedBatches uint64
}

// Queue batches advertisements and broadcasts each batch as one
// BluetoothLERawAdvertisementsResponse to subscribed sessions.
//
// A flush encodes and clears the batch under the batch lock and sends after
// releasing it, so producers never wait on a socket.
type Queue struct {
	mu        sync.Mutex
	batch     *domain.AdvertisementBatch
	lastFlush time.Time
	enc       *wire.Encoder
	msg       api.BluetoothLERawAdvertisementsResponse

	interval time.Duration
	now      func() time.Time
	target   Broadcaster
	logger   ports.Logger
	observe  func(advertisements, sessions int)

	enqueued atomic.Uint64
	flushes  atomic.Uint64
	dropped  atomic.Uint64
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		q.now = now
	}
}

// WithFlushObserver registers fn to be called after every delivered batch
// with the batch size and the number of sessions that received it.
func WithFlushObserver(fn func(advertisements, sessions int)) QueueOption {
	return func(q *Queue) {
		q.observe = fn
	}
}

// NewQueue creates a queue broadcasting to target. A non-positive interval
// selects DefaultFlushInterval.
func NewQueue(target Broadcaster, interval time.Duration, logger ports.Logger, opts ...QueueOption) *Queue {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	q := &Queue{
		batch:    domain.NewAdvertisementBatch(),
		enc:      wire.NewEncoderSize(api.MaxMessageSize),
		msg:      api.BluetoothLERawAdvertisementsResponse{Advertisements: make([]api.BluetoothLERawAdvertisement, 0, domain.MaxAdvertisementBatch)},
		interval: interval,
		now:      time.Now,
		target:   target,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.lastFlush = q.now()
	return q
}

// Enqueue copies adv into the batch. A full batch is flushed before the new
// entry is added, and a batch that becomes full is flushed immediately.
func (q *Queue) Enqueue(adv domain.Advertisement) {
	adv = adv.Clone()
	q.enqueued.Add(1)
	for {
		q.mu.Lock()
		if q.batch.Add(adv) {
			var payload []byte
			var n int
			if q.batch.Full() {
				payload, n = q.takeLocked()
			}
			q.mu.Unlock()
			q.deliver(payload, n)
			return
		}
		payload, n := q.takeLocked()
		q.mu.Unlock()
		q.deliver(payload, n)
	}
}

// Flush sends the current batch if it is not empty and returns the number of
// sessions that received it.
func (q *Queue) Flush() int {
	q.mu.Lock()
	payload, n := q.takeLocked()
	q.mu.Unlock()
	return q.deliver(payload, n)
}

// FlushIfDue flushes when the batch is non-empty and at least the flush
// interval has passed since the last flush. It reports whether it flushed.
func (q *Queue) FlushIfDue() bool {
	q.mu.Lock()
	if q.batch.Empty() || q.now().Sub(q.lastFlush) < q.interval {
		q.mu.Unlock()
		return false
	}
	payload, n := q.takeLocked()
	q.mu.Unlock()
	q.deliver(payload, n)
	return true
}

// Pending returns the number of advertisements waiting in the batch.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.batch.Size()
}

// Stats returns activity counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued:       q.enqueued.Load(),
		Flushes:        q.flushes.Load(),
		DroppedBatches: q.dropped.Load(),
	}
}

// Run drives the timer path until ctx is cancelled. The tick period is a
// quarter of the flush interval so a due batch waits at most that much longer.
func (q *Queue) Run(ctx context.Context) {
	tick := q.interval / 4
	if tick <= 0 {
		tick = q.interval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.FlushIfDue()
		}
	}
}

// takeLocked encodes the batch into a new payload and clears it, returning
// the payload and the number of advertisements in it. The payload is nil for
// an empty batch or when encoding fails; the batch is cleared either way.
// q.mu must be held.
func (q *Queue) takeLocked() ([]byte, int) {
	if q.batch.Empty() {
		return nil, 0
	}

	q.msg.Advertisements = q.msg.Advertisements[:0]
	for _, adv := range q.batch.Entries() {
		q.msg.Advertisements = append(q.msg.Advertisements, api.BluetoothLERawAdvertisement{
			Address:     adv.Address.Pack(),
			RSSI:        int32(adv.RSSI),
			AddressType: uint32(adv.AddressType),
			Data:        adv.Data,
		})
	}
	count := q.batch.Size()
	err := api.MarshalTo(q.enc, &q.msg)

	q.batch.Reset()
	q.lastFlush = q.now()
	for i := range q.msg.Advertisements {
		q.msg.Advertisements[i].Data = nil
	}

	if err != nil {
		q.dropped.Add(1)
		q.logger.Warn("advertisement batch dropped", ports.Int("count", count), ports.Err(err))
		return nil, 0
	}
	payload := make([]byte, q.enc.Len())
	copy(payload, q.enc.Bytes())
	return payload, count
}

func (q *Queue) deliver(payload []byte, count int) int {
	if payload == nil {
		return 0
	}
	q.flushes.Add(1)
	n := q.target.Broadcast(api.TypeBluetoothLERawAdvertisementsResponse, payload, Subscribed)
	if q.observe != nil {
		q.observe(count, n)
	}
	return n
}
