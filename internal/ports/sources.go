package ports

import "github.com/bft-labs/bleproxy/internal/domain"

// DescriptorSource supplies the device identity reported to clients.
// *domain.DescriptorStore satisfies this interface.
type DescriptorSource interface {
	Descriptor() domain.DeviceDescriptor
}

// AdvertisementSink accepts advertisements from an upstream producer.
// The sink copies the advertisement; callers may reuse Data afterwards.
type AdvertisementSink interface {
	Enqueue(adv domain.Advertisement)
}

// FrameTap observes frames crossing a session boundary.
// Implementations must not retain Payload after returning.
type FrameTap interface {
	Capture(f domain.CapturedFrame)
}

// FrameTapFunc adapts a function to FrameTap.
type FrameTapFunc func(f domain.CapturedFrame)

// Capture calls fn(f).
func (fn FrameTapFunc) Capture(f domain.CapturedFrame) {
	fn(f)
}
