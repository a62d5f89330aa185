package domain

import (
	"sync"
	"sync/atomic"
)

// DeviceDescriptor is the identity the proxy reports to clients.
// Values are treated as immutable once published through a DescriptorStore.
type DeviceDescriptor struct {
	Name            string
	MAC             MAC
	Version         string
	CompilationTime string
	Model           string
	Manufacturer    string
	FriendlyName    string
	SuggestedArea   string
}

// DescriptorStore holds the current descriptor snapshot. Readers always see
// a complete descriptor; Replace swaps it atomically and notifies watchers.
type DescriptorStore struct {
	current atomic.Pointer[DeviceDescriptor]

	mu       sync.Mutex
	watchers []func(DeviceDescriptor)
}

// NewDescriptorStore creates a store holding d.
func NewDescriptorStore(d DeviceDescriptor) *DescriptorStore {
	s := &DescriptorStore{}
	s.current.Store(&d)
	return s
}

// Descriptor returns the current snapshot.
func (s *DescriptorStore) Descriptor() DeviceDescriptor {
	return *s.current.Load()
}

// Replace publishes d and calls every watcher with it.
func (s *DescriptorStore) Replace(d DeviceDescriptor) {
	s.current.Store(&d)

	s.mu.Lock()
	watchers := append([]func(DeviceDescriptor){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(d)
	}
}

// Watch registers fn to be called after every Replace.
func (s *DescriptorStore) Watch(fn func(DeviceDescriptor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}
