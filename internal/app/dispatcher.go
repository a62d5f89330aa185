package app

import (
	"fmt"

	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
)

// Result is the outcome of handling one inbound message.
type Result struct {
	// Reply is sent back on the same session when non-nil.
	Reply api.Message
	// Close asks the caller to close the session after sending Reply.
	Close bool
}

// Dispatcher maps inbound messages to session mutations and replies.
// Handlers do not check authentication; ConnectRequest only records it.
type Dispatcher struct {
	descriptors   ports.DescriptorSource
	serverVersion string
}

// NewDispatcher creates a dispatcher reporting descriptors from src.
// serverVersion is embedded in HelloResponse.server_info.
func NewDispatcher(src ports.DescriptorSource, serverVersion string) *Dispatcher {
	return &Dispatcher{descriptors: src, serverVersion: serverVersion}
}

// Handle processes msg for s. At most one reply is produced.
func (d *Dispatcher) Handle(s *Session, msg api.Message) Result {
	switch m := msg.(type) {
	case *api.HelloRequest:
		return Result{Reply: d.hello()}
	case *api.ConnectRequest:
		s.setAuthenticated()
		return Result{Reply: &api.ConnectResponse{InvalidPassword: false}}
	case *api.DeviceInfoRequest:
		return Result{Reply: d.deviceInfo()}
	case *api.ListEntitiesRequest:
		return Result{Reply: &api.ListEntitiesDoneResponse{}}
	case *api.SubscribeStatesRequest:
		return Result{}
	case *api.SubscribeBluetoothLEAdvertisementsRequest:
		s.setBLESubscribed()
		s.Logger().Debug("subscribed to advertisements", ports.Uint64("flags", uint64(m.Flags)))
		return Result{}
	case *api.PingRequest:
		return Result{Reply: &api.PingResponse{}}
	case *api.SubscribeHomeAssistantServicesRequest, *api.SubscribeHomeAssistantStatesRequest:
		return Result{}
	case *api.DisconnectRequest:
		return Result{Reply: &api.DisconnectResponse{}, Close: true}
	default:
		return Result{}
	}
}

func (d *Dispatcher) hello() *api.HelloResponse {
	desc := d.descriptors.Descriptor()
	return &api.HelloResponse{
		APIVersionMajor: api.APIVersionMajor,
		APIVersionMinor: api.APIVersionMinor,
		ServerInfo:      fmt.Sprintf("%s (bleproxy %s)", desc.Name, d.serverVersion),
		Name:            desc.Name,
	}
}

func (d *Dispatcher) deviceInfo() *api.DeviceInfoResponse {
	desc := d.descriptors.Descriptor()
	mac := desc.MAC.String()
	return &api.DeviceInfoResponse{
		UsesPassword:               false,
		Name:                       desc.Name,
		MACAddress:                 mac,
		ESPHomeVersion:             desc.Version,
		CompilationTime:            desc.CompilationTime,
		Model:                      desc.Model,
		HasDeepSleep:               false,
		Manufacturer:               desc.Manufacturer,
		FriendlyName:               desc.FriendlyName,
		BluetoothProxyFeatureFlags: api.ProxyFeatures,
		SuggestedArea:              desc.SuggestedArea,
		BluetoothMACAddress:        mac,
	}
}
