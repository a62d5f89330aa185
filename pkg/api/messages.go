package api

import "github.com/bft-labs/bleproxy/pkg/wire"

// HelloRequest opens a session. The client string is informational.
type HelloRequest struct {
	ClientInfo string
}

func (*HelloRequest) MessageType() MessageType { return TypeHelloRequest }

func (m *HelloRequest) MarshalWire(e *wire.Encoder) {
	if m.ClientInfo != "" {
		e.String(1, m.ClientInfo)
	}
}

func (m *HelloRequest) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		if num != 1 {
			return false, nil
		}
		var err error
		m.ClientInfo, err = d.String(MaxStringLen)
		return true, err
	})
}

// HelloResponse reports the API version and device identity.
type HelloResponse struct {
	APIVersionMajor uint32
	APIVersionMinor uint32
	ServerInfo      string
	Name            string
}

func (*HelloResponse) MessageType() MessageType { return TypeHelloResponse }

func (m *HelloResponse) MarshalWire(e *wire.Encoder) {
	e.Uint32(1, m.APIVersionMajor)
	e.Uint32(2, m.APIVersionMinor)
	e.String(3, m.ServerInfo)
	e.String(4, m.Name)
}

func (m *HelloResponse) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		var err error
		switch num {
		case 1:
			m.APIVersionMajor, err = d.Uint32()
		case 2:
			m.APIVersionMinor, err = d.Uint32()
		case 3:
			m.ServerInfo, err = d.String(MaxStringLen)
		case 4:
			m.Name, err = d.String(MaxStringLen)
		default:
			return false, nil
		}
		return true, err
	})
}

// ConnectRequest authenticates a session. The password is not checked.
type ConnectRequest struct {
	Password string
}

func (*ConnectRequest) MessageType() MessageType { return TypeConnectRequest }

func (m *ConnectRequest) MarshalWire(e *wire.Encoder) {
	if m.Password != "" {
		e.String(1, m.Password)
	}
}

func (m *ConnectRequest) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		if num != 1 {
			return false, nil
		}
		var err error
		m.Password, err = d.String(MaxStringLen)
		return true, err
	})
}

// ConnectResponse answers a ConnectRequest.
type ConnectResponse struct {
	InvalidPassword bool
}

func (*ConnectResponse) MessageType() MessageType { return TypeConnectResponse }

func (m *ConnectResponse) MarshalWire(e *wire.Encoder) {
	e.Bool(1, m.InvalidPassword)
}

func (m *ConnectResponse) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		if num != 1 {
			return false, nil
		}
		var err error
		m.InvalidPassword, err = d.Bool()
		return true, err
	})
}

// empty is embedded by records without fields.
type empty struct{}

func (empty) MarshalWire(*wire.Encoder) {}

func (empty) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, nil)
}

type (
	DisconnectRequest                     struct{ empty }
	DisconnectResponse                    struct{ empty }
	PingRequest                           struct{ empty }
	PingResponse                          struct{ empty }
	DeviceInfoRequest                     struct{ empty }
	ListEntitiesRequest                   struct{ empty }
	ListEntitiesDoneResponse              struct{ empty }
	SubscribeStatesRequest                struct{ empty }
	SubscribeHomeAssistantServicesRequest struct{ empty }
	SubscribeHomeAssistantStatesRequest   struct{ empty }
)

func (*DisconnectRequest) MessageType() MessageType        { return TypeDisconnectRequest }
func (*DisconnectResponse) MessageType() MessageType       { return TypeDisconnectResponse }
func (*PingRequest) MessageType() MessageType              { return TypePingRequest }
func (*PingResponse) MessageType() MessageType             { return TypePingResponse }
func (*DeviceInfoRequest) MessageType() MessageType        { return TypeDeviceInfoRequest }
func (*ListEntitiesRequest) MessageType() MessageType      { return TypeListEntitiesRequest }
func (*ListEntitiesDoneResponse) MessageType() MessageType { return TypeListEntitiesDoneResponse }
func (*SubscribeStatesRequest) MessageType() MessageType   { return TypeSubscribeStatesRequest }

func (*SubscribeHomeAssistantServicesRequest) MessageType() MessageType {
	return TypeSubscribeHomeAssistantServicesRequest
}

func (*SubscribeHomeAssistantStatesRequest) MessageType() MessageType {
	return TypeSubscribeHomeAssistantStatesRequest
}

// DeviceInfoResponse describes the device and its Bluetooth proxy capabilities.
type DeviceInfoResponse struct {
	UsesPassword               bool
	Name                       string
	MACAddress                 string
	ESPHomeVersion             string
	CompilationTime            string
	Model                      string
	HasDeepSleep               bool
	Manufacturer               string
	FriendlyName               string
	BluetoothProxyFeatureFlags uint32
	SuggestedArea              string
	BluetoothMACAddress        string
}

func (*DeviceInfoResponse) MessageType() MessageType { return TypeDeviceInfoResponse }

func (m *DeviceInfoResponse) MarshalWire(e *wire.Encoder) {
	e.Bool(1, m.UsesPassword)
	e.String(2, m.Name)
	e.String(3, m.MACAddress)
	e.String(4, m.ESPHomeVersion)
	e.String(5, m.CompilationTime)
	e.String(6, m.Model)
	e.Bool(7, m.HasDeepSleep)
	e.String(12, m.Manufacturer)
	e.String(13, m.FriendlyName)
	e.Uint32(15, m.BluetoothProxyFeatureFlags)
	e.String(16, m.SuggestedArea)
	e.String(18, m.BluetoothMACAddress)
}

func (m *DeviceInfoResponse) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		var err error
		switch num {
		case 1:
			m.UsesPassword, err = d.Bool()
		case 2:
			m.Name, err = d.String(MaxStringLen)
		case 3:
			m.MACAddress, err = d.String(MaxStringLen)
		case 4:
			m.ESPHomeVersion, err = d.String(MaxStringLen)
		case 5:
			m.CompilationTime, err = d.String(MaxStringLen)
		case 6:
			m.Model, err = d.String(MaxStringLen)
		case 7:
			m.HasDeepSleep, err = d.Bool()
		case 12:
			m.Manufacturer, err = d.String(MaxStringLen)
		case 13:
			m.FriendlyName, err = d.String(MaxStringLen)
		case 15:
			m.BluetoothProxyFeatureFlags, err = d.Uint32()
		case 16:
			m.SuggestedArea, err = d.String(MaxStringLen)
		case 18:
			m.BluetoothMACAddress, err = d.String(MaxStringLen)
		default:
			return false, nil
		}
		return true, err
	})
}

// SubscribeBluetoothLEAdvertisementsRequest subscribes a session to
// advertisement batches.
type SubscribeBluetoothLEAdvertisementsRequest struct {
	Flags uint32
}

func (*SubscribeBluetoothLEAdvertisementsRequest) MessageType() MessageType {
	return TypeSubscribeBluetoothLEAdvertisements
}

func (m *SubscribeBluetoothLEAdvertisementsRequest) MarshalWire(e *wire.Encoder) {
	e.Uint32(1, m.Flags)
}

func (m *SubscribeBluetoothLEAdvertisementsRequest) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		if num != 1 {
			return false, nil
		}
		var err error
		m.Flags, err = d.Uint32()
		return true, err
	})
}

// BluetoothLERawAdvertisement is one advertisement inside a batch.
type BluetoothLERawAdvertisement struct {
	Address     uint64
	RSSI        int32
	AddressType uint32
	Data        []byte
}

func (a *BluetoothLERawAdvertisement) marshalWire(e *wire.Encoder) {
	e.Uint64(1, a.Address)
	e.Sint32(2, a.RSSI)
	e.Uint32(3, a.AddressType)
	e.BytesField(4, a.Data)
}

func (a *BluetoothLERawAdvertisement) unmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		var err error
		switch num {
		case 1:
			a.Address, err = d.Uint64()
		case 2:
			a.RSSI, err = d.Sint32()
		case 3:
			a.AddressType, err = d.Uint32()
		case 4:
			a.Data, err = d.Bytes(MaxAdvertisementData)
		default:
			return false, nil
		}
		return true, err
	})
}

// BluetoothLERawAdvertisementsResponse carries a batch of advertisements.
type BluetoothLERawAdvertisementsResponse struct {
	Advertisements []BluetoothLERawAdvertisement
}

func (*BluetoothLERawAdvertisementsResponse) MessageType() MessageType {
	return TypeBluetoothLERawAdvertisementsResponse
}

func (m *BluetoothLERawAdvertisementsResponse) MarshalWire(e *wire.Encoder) {
	for i := range m.Advertisements {
		e.Message(1, m.Advertisements[i].marshalWire)
	}
}

// UnmarshalWire keeps at most MaxAdvertisements entries; the rest are
// validated and discarded.
func (m *BluetoothLERawAdvertisementsResponse) UnmarshalWire(d *wire.Decoder) error {
	return decodeFields(d, func(d *wire.Decoder, num wire.Number) (bool, error) {
		if num != 1 {
			return false, nil
		}
		sub, err := d.Message()
		if err != nil {
			return true, err
		}
		var adv BluetoothLERawAdvertisement
		if err := adv.unmarshalWire(sub); err != nil {
			return true, err
		}
		if len(m.Advertisements) < MaxAdvertisements {
			m.Advertisements = append(m.Advertisements, adv)
		}
		return true, nil
	})
}
