package peer

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/mocks"
)

// testStart 测试时钟起点（mock 时钟默认从 epoch 0 开始）
var testStart = time.Unix(1_700_000_000, 0)

type testEnv struct {
	env   Env
	reg   *mocks.MockRegistry
	cache *mocks.MockDownloadCache
	clock *clock.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mc := clock.NewMock()
	mc.Set(testStart)

	te := &testEnv{
		reg:   mocks.NewMockRegistry(),
		cache: mocks.NewMockDownloadCache(),
		clock: mc,
	}
	te.env = Env{Registry: te.reg, Cache: te.cache, Clock: mc}
	return te
}

func (te *testEnv) httpPeer(t *testing.T, remote string) *HTTPPeer {
	t.Helper()
	p, err := NewHTTPPeer(te.env, remote, types.PeerAddress{})
	require.NoError(t, err)
	return p
}

// ============================================================================
//                              构造
// ============================================================================

func TestNew_Construction(t *testing.T) {
	te := newTestEnv(t)

	t.Run("RemoteOnly", func(t *testing.T) {
		p := te.httpPeer(t, "1.2.3.4")
		assert.Equal(t, "http://1.2.3.4:8123", p.Address().String())
		assert.Equal(t, "1.2.3.4", p.RemoteAddress())
		assert.Equal(t, types.PeerStateNotConnected, p.State())
		assert.Equal(t, types.ProtocolHTTP, p.Protocol())
		assert.True(t, p.ShareAddress())
		assert.Zero(t, p.LastUpdated())
	})

	t.Run("GRPCDefaultPort", func(t *testing.T) {
		p, err := New(te.env, types.ProtocolGRPC, "1.2.3.4", types.PeerAddress{})
		require.NoError(t, err)
		assert.Equal(t, "grpc://1.2.3.4:8121", p.Address().String())
	})

	t.Run("FromAddressKeepsRawString", func(t *testing.T) {
		addr := types.MustParsePeerAddress("grpc://5.6.7.8")
		p, err := NewFromAddress(te.env, addr, "grpc://5.6.7.8")
		require.NoError(t, err)
		assert.Equal(t, "grpc://5.6.7.8", p.RemoteAddress())
		assert.Equal(t, addr, p.Address())

		p, err = NewFromAddress(te.env, addr, "")
		require.NoError(t, err)
		assert.Equal(t, "grpc://5.6.7.8:8121", p.RemoteAddress())
	})

	t.Run("AnnouncedWins", func(t *testing.T) {
		announced := types.MustParsePeerAddress("http://node.example.org:9000")
		p, err := NewHTTPPeer(te.env, "1.2.3.4", announced)
		require.NoError(t, err)
		assert.Equal(t, announced, p.Address())
	})

	t.Run("WrongTransportRejected", func(t *testing.T) {
		announced := types.MustParsePeerAddress("grpc://1.2.3.4")
		_, err := NewHTTPPeer(te.env, "1.2.3.4", announced)
		assert.ErrorIs(t, err, ErrProtocolMismatch)

		_, err = New(te.env, types.ProtocolGRPC, "1.2.3.4", types.MustParsePeerAddress("1.2.3.4"))
		assert.ErrorIs(t, err, ErrProtocolMismatch)
	})

	t.Run("NoAddress", func(t *testing.T) {
		_, err := NewHTTPPeer(te.env, "not a host", types.PeerAddress{})
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("UnsupportedProtocol", func(t *testing.T) {
		p, err := New(te.env, types.Protocol("udp"), "1.2.3.4", types.PeerAddress{})
		assert.ErrorIs(t, err, ErrUnsupportedProtocol)
		assert.Nil(t, p)
	})

	t.Run("MissingCollaborators", func(t *testing.T) {
		_, err := NewHTTPPeer(Env{Cache: te.cache}, "1.2.3.4", types.PeerAddress{})
		assert.ErrorIs(t, err, ErrInvalidConfig)
		_, err = NewHTTPPeer(Env{Registry: te.reg}, "1.2.3.4", types.PeerAddress{})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

// ============================================================================
//                              握手字段与版本
// ============================================================================

func TestUpdateInfo_Version(t *testing.T) {
	te := newTestEnv(t)

	tests := []struct {
		name        string
		application string
		version     string
		wantOld     bool
		wantVersion string
	}{
		{"SameAppCurrent", "BRS", "v3.0.0", false, "v3.0.0"},
		{"SameAppAtMinimum", "BRS", "2.5.0", false, "v2.5.0"},
		{"SameAppTooOld", "BRS", "v2.4.9", true, "v2.4.9"},
		{"SameAppUnparseable", "BRS", "banana", true, ""},
		{"OtherAppOldVersionIgnored", "NXT", "v1.0.0", false, "v1.0.0"},
		{"OtherAppUnparseable", "NXT", "banana", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := te.httpPeer(t, "1.2.3.4")
			p.UpdateInfo(types.PeerInfo{Application: tt.application, Version: tt.version, Platform: "PC"})

			assert.Equal(t, tt.wantOld, p.IsBlacklisted())
			assert.Equal(t, tt.wantVersion, p.Version().String())
			assert.Equal(t, tt.application, p.Application())
			assert.Equal(t, "PC", p.Platform())
		})
	}
}

func TestUpdateInfo_VersionResetOnReassign(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")

	p.UpdateInfo(types.PeerInfo{Application: "BRS", Version: "v1.0.0"})
	require.True(t, p.IsBlacklisted())

	p.UpdateInfo(types.PeerInfo{Application: "BRS", Version: "v3.1.0"})
	assert.False(t, p.IsBlacklisted())
	assert.True(t, p.IsAtLeastMyVersion())
	assert.True(t, p.IsHigherOrEqualVersionThan(types.MustParseVersion("v3.1.0")))
	assert.False(t, p.IsHigherOrEqualVersionThan(types.MustParseVersion("v3.2.0")))
}

func TestUpdateInfo_AnnouncedAddress(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")

	p.UpdateInfo(types.PeerInfo{Application: "BRS", Version: "v3.0.0", AnnouncedAddress: "node.example.org:9000"})
	assert.Equal(t, "http://node.example.org:9000", p.Address().String())
	require.Len(t, te.reg.UpdatedPeers(), 1)

	// 另一种传输的公告地址被忽略
	p.UpdateInfo(types.PeerInfo{Application: "BRS", Version: "v3.0.0", AnnouncedAddress: "grpc://other.example.org"})
	assert.Equal(t, "http://node.example.org:9000", p.Address().String())
	assert.Len(t, te.reg.UpdatedPeers(), 1)
}

// ============================================================================
//                              状态机与通知
// ============================================================================

func TestTransitionEvent(t *testing.T) {
	nc, c, d := types.PeerStateNotConnected, types.PeerStateConnected, types.PeerStateDisconnected

	tests := []struct {
		from, to types.PeerState
		want     types.PeerEvent
		fires    bool
	}{
		{nc, nc, 0, false},
		{nc, c, types.EventActivated, true},
		{c, nc, types.EventActivated, true},
		{d, nc, types.EventActivated, true},
		{nc, d, types.EventActivated, true},
		{c, d, types.EventChanged, true},
		{d, c, types.EventChanged, true},
		{c, c, 0, false},
	}
	for _, tt := range tests {
		ev, ok := transitionEvent(tt.from, tt.to)
		assert.Equal(t, tt.fires, ok, "%s -> %s", tt.from, tt.to)
		if tt.fires {
			assert.Equal(t, tt.want, ev, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestUpdateAddress(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")
	p.setState(types.PeerStateConnected)
	te.reg.ResetEvents()

	t.Run("MismatchIgnored", func(t *testing.T) {
		p.UpdateAddress(types.MustParsePeerAddress("grpc://5.6.7.8"))
		assert.Equal(t, "http://1.2.3.4:8123", p.Address().String())
		assert.Equal(t, types.PeerStateConnected, p.State())
		assert.Empty(t, te.reg.Events())
		assert.Empty(t, te.reg.UpdatedPeers())
	})

	t.Run("ForcesRevalidation", func(t *testing.T) {
		addr := types.MustParsePeerAddress("http://5.6.7.8:8123")
		p.UpdateAddress(addr)
		assert.Equal(t, addr, p.Address())
		assert.Equal(t, types.PeerStateNotConnected, p.State())
		assert.Equal(t, 1, te.reg.EventsOf(types.EventActivated))
		require.Len(t, te.reg.UpdatedPeers(), 1)
		assert.Same(t, p, te.reg.UpdatedPeers()[0])
	})
}

func TestRemove(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")
	p.Remove()
	require.Len(t, te.reg.RemovedPeers(), 1)
	assert.Same(t, p, te.reg.RemovedPeers()[0])
}

func TestWellKnownAndRebroadcast(t *testing.T) {
	te := newTestEnv(t)
	te.reg.WellKnown = types.NewAddressSet(types.MustParsePeerAddress("1.2.3.4"))
	te.reg.Rebroadcast = types.NewAddressSet(types.MustParsePeerAddress("5.6.7.8"))

	a := te.httpPeer(t, "1.2.3.4")
	b := te.httpPeer(t, "5.6.7.8")
	assert.True(t, a.IsWellKnown())
	assert.False(t, a.IsRebroadcastTarget())
	assert.False(t, b.IsWellKnown())
	assert.True(t, b.IsRebroadcastTarget())
}

// ============================================================================
//                              流量计数
// ============================================================================

func TestVolume(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")

	p.UpdateDownloadedVolume(100)
	p.UpdateDownloadedVolume(50)
	p.UpdateUploadedVolume(7)
	p.UpdateUploadedVolume(-1)

	assert.Equal(t, int64(150), p.DownloadedVolume())
	assert.Equal(t, int64(7), p.UploadedVolume())
	assert.Equal(t, 2, te.reg.EventsOf(types.EventDownloadedVolume))
	assert.Equal(t, 1, te.reg.EventsOf(types.EventUploadedVolume))
}

// ============================================================================
//                              地址传播格式
// ============================================================================

func TestGossipAddresses(t *testing.T) {
	addrs := []types.PeerAddress{
		types.MustParsePeerAddress("1.2.3.4"),
		types.MustParsePeerAddress("grpc://[::1]:9000"),
	}
	minVer := types.MustParseVersion("v3.0.0")

	old := FormatGossipAddresses(types.MustParseVersion("v2.9.0"), minVer, addrs)
	assert.Equal(t, []string{"1.2.3.4:8123", "[::1]:9000"}, old)

	current := FormatGossipAddresses(types.MustParseVersion("v3.0.0"), minVer, addrs)
	assert.Equal(t, []string{"http://1.2.3.4:8123", "grpc://[::1]:9000"}, current)

	parsed := ParseGossipAddresses(append(current, "", "  ", "bad host", "5.6.7.8"))
	require.Len(t, parsed, 3)
	assert.Equal(t, addrs, parsed[:2])
	assert.Equal(t, "http://5.6.7.8:8123", parsed[2].String())
}
