package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMACPack(t *testing.T) {
	m := MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	assert.Equal(t, uint64(0x0000AABBCCDDEEFF), m.Pack())
	assert.Equal(t, m, UnpackMAC(m.Pack()))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", m.String())
	assert.Equal(t, uint64(0), MAC{}.Pack())
}

func TestParseMAC(t *testing.T) {
	tests := []struct {
		input   string
		want    MAC
		wantErr bool
	}{
		{input: "AA:BB:CC:DD:EE:FF", want: MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}},
		{input: "aa-bb-cc-dd-ee-01", want: MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x01}},
		{input: " 01:02:03:04:05:06 ", want: MAC{1, 2, 3, 4, 5, 6}},
		{input: "", wantErr: true},
		{input: "not-a-mac", wantErr: true},
		{input: "00:00:00:00:fe:80:00:00:00:00:00:00:02:00:5e:10:00:00:00:01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMAC(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMAC)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressTypeString(t *testing.T) {
	assert.Equal(t, "public", AddressPublic.String())
	assert.Equal(t, "random", AddressRandom.String())
	assert.Equal(t, "7", AddressType(7).String())
}

func TestAdvertisementClone(t *testing.T) {
	data := make([]byte, 80)
	adv := Advertisement{RSSI: -42, Data: data}

	c := adv.Clone()
	assert.Len(t, c.Data, MaxAdvertisementData)
	data[0] = 0xff
	assert.Zero(t, c.Data[0])
	assert.Equal(t, int8(-42), c.RSSI)
}

func TestAdvertisementBatch(t *testing.T) {
	b := NewAdvertisementBatch()
	assert.True(t, b.Empty())

	for i := 0; i < MaxAdvertisementBatch; i++ {
		require.True(t, b.Add(Advertisement{RSSI: int8(-i)}))
	}
	assert.True(t, b.Full())
	assert.False(t, b.Add(Advertisement{}), "full batch rejects")
	assert.Equal(t, MaxAdvertisementBatch, b.Size())

	entries := b.Entries()
	for i, adv := range entries {
		assert.Equal(t, int8(-i), adv.RSSI, "insertion order")
	}

	b.Reset()
	assert.True(t, b.Empty())
	assert.Zero(t, b.Size())
	assert.Empty(t, b.Entries())
}

func TestDescriptorStore(t *testing.T) {
	s := NewDescriptorStore(DeviceDescriptor{Name: "one"})
	assert.Equal(t, "one", s.Descriptor().Name)

	var seen []string
	s.Watch(func(d DeviceDescriptor) { seen = append(seen, d.Name) })

	s.Replace(DeviceDescriptor{Name: "two"})
	assert.Equal(t, "two", s.Descriptor().Name)
	assert.Equal(t, []string{"two"}, seen)
}

func TestCaptureRecordConversion(t *testing.T) {
	f := CapturedFrame{
		Time:      time.Unix(100, 5),
		Session:   "abc",
		Remote:    "127.0.0.1:1234",
		Direction: Outbound,
		Type:      93,
		Payload:   []byte{1, 2},
	}
	got := f.ToRecord().ToFrame()
	assert.True(t, f.Time.Equal(got.Time))
	got.Time = f.Time
	assert.Equal(t, f, got)
	assert.Equal(t, "out", Outbound.String())
	assert.Equal(t, "in", Inbound.String())
}
