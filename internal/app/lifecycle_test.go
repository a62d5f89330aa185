package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bleproxy/internal/domain"
)

type stateChange struct {
	previous State
	current  State
	reason   string
}

// recordingEmitter records state change events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []stateChange
}

func (m *recordingEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChange{previous, current, reason})
}

func (m *recordingEmitter) Events() []stateChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChange(nil), m.events...)
}

// lifecycleIn walks a new lifecycle to s through valid transitions.
func lifecycleIn(t *testing.T, s State) *Lifecycle {
	t.Helper()
	paths := map[State][]State{
		StateStopped:  nil,
		StateStarting: {StateStarting},
		StateRunning:  {StateStarting, StateRunning},
		StateStopping: {StateStarting, StateRunning, StateStopping},
		StateCrashed:  {StateStarting, StateCrashed},
	}
	l := NewLifecycle(&mockLogger{}, nil)
	for _, next := range paths[s] {
		require.NoError(t, l.TransitionTo(next, "setup"))
	}
	return l
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Stopped", StateStopped.String())
	assert.Equal(t, "Starting", StateStarting.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Stopping", StateStopping.String())
	assert.Equal(t, "Crashed", StateCrashed.String())
	assert.Equal(t, "Unknown", State(99).String())
	assert.Equal(t, "Unknown", State(-1).String())
}

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		wantErr error
	}{
		{StateStopped, StateStarting, nil},
		{StateStarting, StateRunning, nil},
		{StateStarting, StateStopping, nil},
		{StateStarting, StateCrashed, nil},
		{StateRunning, StateStopping, nil},
		{StateRunning, StateCrashed, nil},
		{StateStopping, StateStopped, nil},
		{StateStopping, StateCrashed, nil},
		{StateCrashed, StateStarting, nil},

		{StateStopped, StateRunning, domain.ErrNotRunning},
		{StateStopped, StateStopping, domain.ErrNotRunning},
		{StateCrashed, StateRunning, domain.ErrNotRunning},
		{StateStarting, StateStopped, domain.ErrAlreadyRunning},
		{StateRunning, StateStarting, domain.ErrAlreadyRunning},
		{StateRunning, StateStopped, domain.ErrAlreadyRunning},
		{StateStopping, StateRunning, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			l := lifecycleIn(t, tt.from)
			err := l.TransitionTo(tt.to, "test")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, l.State(), "state unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, l.State())
		})
	}
}

func TestLifecycleEmitsEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	require.NoError(t, l.TransitionTo(StateStarting, "start"))
	require.NoError(t, l.TransitionTo(StateRunning, "listening"))
	assert.Error(t, l.TransitionTo(StateStarting, "again"))

	assert.Equal(t, []stateChange{
		{StateStopped, StateStarting, "start"},
		{StateStarting, StateRunning, "listening"},
	}, emitter.Events(), "rejected transitions emit nothing")
}

func TestLifecycleSnapshot(t *testing.T) {
	clock := newFakeClock()
	l := NewLifecycle(&mockLogger{}, nil)
	l.now = clock.Now

	clock.Advance(time.Second)
	require.NoError(t, l.TransitionTo(StateStarting, "start"))

	st := l.Snapshot()
	assert.Equal(t, StateStarting, st.State)
	assert.Equal(t, clock.Now(), st.Since)
	assert.Equal(t, "start", st.Reason)
}

func TestLifecycleCanStartStop(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := lifecycleIn(t, tt.state)
			assert.Equal(t, tt.wantStart, l.CanStart())
			assert.Equal(t, tt.wantStop, l.CanStop())
		})
	}
}

func TestLifecycleWait(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	release := make(chan struct{})
	l.Go(func() { <-release })
	l.Go(func() {})

	assert.ErrorIs(t, l.Wait(20*time.Millisecond), domain.ErrShutdownTimeout)

	close(release)
	assert.NoError(t, l.Wait(time.Second))
}

func TestLifecycleConcurrentReads(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	require.NoError(t, l.TransitionTo(StateStarting, "start"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.State()
			_ = l.Snapshot()
			_ = l.CanStop()
		}()
	}
	require.NoError(t, l.TransitionTo(StateRunning, "listening"))
	wg.Wait()
	assert.Equal(t, StateRunning, l.State())
}
