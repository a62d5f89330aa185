package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/pkg/api"
	"github.com/bft-labs/bleproxy/pkg/wire"
)

func testAdvertisement(i int) domain.Advertisement {
	return domain.Advertisement{
		Address:     domain.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, byte(i)},
		AddressType: domain.AddressRandom,
		RSSI:        int8(-40 - i),
		Data:        []byte{0x02, 0x01, byte(i)},
	}
}

func TestQueueFlushEncodesBatch(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, 0, &mockLogger{})

	q.Enqueue(testAdvertisement(1))
	q.Enqueue(testAdvertisement(2))
	assert.Equal(t, 2, q.Pending())

	assert.Equal(t, 1, q.Flush())
	assert.Zero(t, q.Pending())

	batches := target.batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Advertisements, 2)
	first := batches[0].Advertisements[0]
	assert.Equal(t, uint64(0x0000AABBCCDDEE01), first.Address)
	assert.Equal(t, int32(-41), first.RSSI)
	assert.Equal(t, uint32(1), first.AddressType)
	assert.Equal(t, []byte{0x02, 0x01, 0x01}, first.Data)
	assert.Equal(t, uint64(0x0000AABBCCDDEE02), batches[0].Advertisements[1].Address)
}

func TestQueueFlushEmptyIsNoop(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, 0, &mockLogger{})

	assert.Zero(t, q.Flush())
	assert.Empty(t, target.payloads)
	assert.Zero(t, q.Stats().Flushes)
}

func TestQueueCapacityFlush(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, time.Hour, &mockLogger{})

	for i := 0; i < domain.MaxAdvertisementBatch-1; i++ {
		q.Enqueue(testAdvertisement(i))
	}
	assert.Empty(t, target.payloads)
	assert.Equal(t, domain.MaxAdvertisementBatch-1, q.Pending())

	q.Enqueue(testAdvertisement(15))
	assert.Zero(t, q.Pending(), "reaching capacity flushes")
	require.Len(t, target.payloads, 1)

	q.Enqueue(testAdvertisement(16))
	assert.Equal(t, 1, q.Pending())

	batches := target.batches()
	require.Len(t, batches[0].Advertisements, domain.MaxAdvertisementBatch)
	for i, adv := range batches[0].Advertisements {
		assert.Equal(t, byte(i), adv.Data[2], "insertion order")
	}
}

func TestQueueTimerFlush(t *testing.T) {
	clock := newFakeClock()
	target := &recordingBroadcaster{}
	q := NewQueue(target, 100*time.Millisecond, &mockLogger{}, WithClock(clock.Now))

	assert.False(t, q.FlushIfDue(), "empty batch")

	clock.Advance(20 * time.Millisecond)
	q.Enqueue(testAdvertisement(1))

	clock.Advance(79 * time.Millisecond)
	assert.False(t, q.FlushIfDue(), "younger than the interval")
	assert.Equal(t, 1, q.Pending())

	clock.Advance(1 * time.Millisecond)
	assert.True(t, q.FlushIfDue())
	assert.Zero(t, q.Pending())
	require.Len(t, target.payloads, 1)

	q.Enqueue(testAdvertisement(2))
	clock.Advance(99 * time.Millisecond)
	assert.False(t, q.FlushIfDue(), "reference time reset by the flush")
	clock.Advance(1 * time.Millisecond)
	assert.True(t, q.FlushIfDue())
}

func TestQueueCopiesAdvertisementData(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, 0, &mockLogger{})

	data := []byte{1, 2, 3}
	q.Enqueue(domain.Advertisement{Data: data})
	data[0] = 9
	q.Flush()

	assert.Equal(t, []byte{1, 2, 3}, target.batches()[0].Advertisements[0].Data)
}

func TestQueueConcurrentEnqueueLosesNothing(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, time.Millisecond, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	const producers, perProducer = 4, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(testAdvertisement(i))
			}
		}()
	}
	wg.Wait()
	cancel()
	<-done
	q.Flush()

	total := 0
	for _, b := range target.batches() {
		assert.LessOrEqual(t, len(b.Advertisements), domain.MaxAdvertisementBatch)
		total += len(b.Advertisements)
	}
	assert.Equal(t, producers*perProducer, total)
	assert.Equal(t, uint64(producers*perProducer), q.Stats().Enqueued)
}

func TestQueueRunStopsOnCancel(t *testing.T) {
	q := NewQueue(&recordingBroadcaster{}, 10*time.Millisecond, &mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestQueueEncodeFailureDropsBatch(t *testing.T) {
	target := &recordingBroadcaster{}
	q := NewQueue(target, 0, &mockLogger{})
	q.enc = wire.NewEncoderSize(4)

	q.Enqueue(testAdvertisement(1))
	assert.Zero(t, q.Flush())
	assert.Zero(t, q.Pending())
	assert.Empty(t, target.payloads)
	assert.Equal(t, uint64(1), q.Stats().DroppedBatches)

	q.enc = wire.NewEncoderSize(api.MaxMessageSize)
	q.Enqueue(testAdvertisement(2))
	assert.Equal(t, 1, q.Flush(), "queue keeps working after a dropped batch")
}

func TestQueueFlushObserver(t *testing.T) {
	target := &recordingBroadcaster{}
	var gotAdvs, gotSessions int
	q := NewQueue(target, 0, &mockLogger{}, WithFlushObserver(func(advs, sessions int) {
		gotAdvs, gotSessions = advs, sessions
	}))

	q.Enqueue(testAdvertisement(1))
	q.Enqueue(testAdvertisement(2))
	q.Enqueue(testAdvertisement(3))
	n := q.Flush()

	assert.Equal(t, 3, gotAdvs)
	assert.Equal(t, n, gotSessions)
}
