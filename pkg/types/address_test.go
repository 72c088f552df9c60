package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeerAddress(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		def      Protocol
		expected PeerAddress
	}{
		{"完整 HTTP", "http://1.2.3.4:8123", ProtocolGRPC, PeerAddress{ProtocolHTTP, "1.2.3.4", 8123}},
		{"完整 gRPC", "grpc://node.example.org:9000", ProtocolHTTP, PeerAddress{ProtocolGRPC, "node.example.org", 9000}},
		{"裸 host:port 使用默认协议", "10.0.0.1:7000", ProtocolGRPC, PeerAddress{ProtocolGRPC, "10.0.0.1", 7000}},
		{"缺省端口", "example.org", ProtocolHTTP, PeerAddress{ProtocolHTTP, "example.org", DefaultHTTPPort}},
		{"缺省端口 gRPC", "grpc://example.org", ProtocolHTTP, PeerAddress{ProtocolGRPC, "example.org", DefaultGRPCPort}},
		{"大写 scheme 与主机", "HTTP://Example.ORG:1", "", PeerAddress{ProtocolHTTP, "example.org", 1}},
		{"带路径", "http://1.2.3.4:8123/burst", "", PeerAddress{ProtocolHTTP, "1.2.3.4", 8123}},
		{"IPv6 带括号", "[::1]:8123", ProtocolHTTP, PeerAddress{ProtocolHTTP, "::1", 8123}},
		{"IPv6 无端口", "grpc://[2001:db8::1]", "", PeerAddress{ProtocolGRPC, "2001:db8::1", DefaultGRPCPort}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParsePeerAddress(tt.raw, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, addr)
		})
	}
}

func TestParsePeerAddress_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"http://",
		"ftp://1.2.3.4:21",
		"1.2.3.4:0",
		"1.2.3.4:70000",
		"1.2.3.4:abc",
		"bad host:80",
		"under..dots:80",
	} {
		_, err := ParsePeerAddress(raw, ProtocolHTTP)
		assert.ErrorIs(t, err, ErrInvalidAddress, "raw=%q", raw)
	}
}

func TestPeerAddress_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"http://1.2.3.4:8123",
		"grpc://peer.example.org:8121",
		"http://[::1]:8123",
		"10.1.1.1",
	} {
		addr, err := ParsePeerAddress(raw, ProtocolHTTP)
		require.NoError(t, err)

		again, err := ParsePeerAddress(addr.String(), ProtocolGRPC)
		require.NoError(t, err)
		assert.Equal(t, addr, again)
		assert.Equal(t, addr.String(), again.String())
	}
}

func TestPeerAddress_HostPort(t *testing.T) {
	addr := MustParsePeerAddress("http://[2001:db8::2]:8123")
	assert.Equal(t, "[2001:db8::2]:8123", addr.HostPort())
	assert.Equal(t, "http://[2001:db8::2]:8123", addr.String())
}

func TestPeerAddress_Equality(t *testing.T) {
	a := MustParsePeerAddress("http://1.2.3.4:8123")
	b := MustParsePeerAddress("1.2.3.4")
	c := MustParsePeerAddress("grpc://1.2.3.4:8123")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
	assert.True(t, PeerAddress{}.IsZero())
}

func TestAddressSet(t *testing.T) {
	set, invalid := ParseAddressSet([]string{"1.1.1.1", "grpc://2.2.2.2", "::bad::host::x"}, ProtocolHTTP)

	assert.Equal(t, 2, set.Len())
	assert.Len(t, invalid, 1)
	assert.True(t, set.Contains(MustParsePeerAddress("http://1.1.1.1:8123")))
	assert.False(t, set.Contains(MustParsePeerAddress("grpc://1.1.1.1")))

	slice := set.Slice()
	require.Len(t, slice, 2)
	assert.Equal(t, "grpc://2.2.2.2:8121", slice[0].String())
}
