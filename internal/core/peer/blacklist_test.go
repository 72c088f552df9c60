package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dep2p/go-brs/pkg/types"
	"github.com/dep2p/go-brs/tests/testutil"
)

func TestBlacklist_RefreshesTimestamp(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")
	p.setState(types.PeerStateConnected)
	te.reg.ResetEvents()

	p.Blacklist()
	first := p.BlacklistingTime()
	assert.Equal(t, testStart.UnixMilli(), first)
	assert.True(t, p.IsBlacklisted())
	assert.Equal(t, types.PeerStateNotConnected, p.State())
	assert.Equal(t, 1, te.reg.EventsOf(types.EventBlacklist))
	assert.Equal(t, 1, te.reg.EventsOf(types.EventActivated))

	te.clock.Add(5 * time.Second)
	p.Blacklist()
	assert.Equal(t, first+5000, p.BlacklistingTime())
	assert.Equal(t, 2, te.reg.EventsOf(types.EventBlacklist))
	// 已是 NOT_CONNECTED，不再触发状态事件
	assert.Equal(t, 1, te.reg.EventsOf(types.EventActivated))
}

func TestBlacklist_KnownBlacklistedAddress(t *testing.T) {
	te := newTestEnv(t)
	te.reg.Blacklisted = types.NewAddressSet(types.MustParsePeerAddress("1.2.3.4"))

	p := te.httpPeer(t, "1.2.3.4")
	assert.True(t, p.IsBlacklisted())
	assert.Zero(t, p.BlacklistingTime())
	assert.Empty(t, te.reg.Events())

	// UnBlacklist 不能解除配置的永久黑名单
	p.UnBlacklist()
	assert.True(t, p.IsBlacklisted())
}

func TestUnBlacklist(t *testing.T) {
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")
	p.Blacklist()
	te.reg.ResetEvents()

	p.UnBlacklist()
	assert.False(t, p.IsBlacklisted())
	assert.Zero(t, p.BlacklistingTime())
	assert.Equal(t, types.PeerStateNotConnected, p.State())
	assert.Equal(t, 1, te.reg.EventsOf(types.EventUnblacklist))
}

func TestUpdateBlacklistedStatus(t *testing.T) {
	te := newTestEnv(t)
	te.reg.BlacklistPeriod = time.Minute
	p := te.httpPeer(t, "1.2.3.4")

	// 未加入黑名单时无操作
	p.UpdateBlacklistedStatus(te.clock.Now().Add(time.Hour))
	assert.Equal(t, 0, te.reg.EventsOf(types.EventUnblacklist))

	p.Blacklist()
	p.UpdateBlacklistedStatus(te.clock.Now().Add(59 * time.Second))
	assert.True(t, p.IsBlacklisted())

	p.UpdateBlacklistedStatus(te.clock.Now().Add(time.Minute))
	assert.False(t, p.IsBlacklisted())
	assert.Equal(t, 1, te.reg.EventsOf(types.EventUnblacklist))
}

func TestBlacklistWithCause(t *testing.T) {
	t.Run("ExemptCauses", func(t *testing.T) {
		for _, cause := range []error{
			types.ErrNotCurrentlyValid,
			fmt.Errorf("apply block 42: %w", types.ErrBlockOutOfOrder),
			fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", types.ErrStorageBusy)),
		} {
			te := newTestEnv(t)
			p := te.httpPeer(t, "1.2.3.4")
			p.BlacklistWithCause(cause, "bad block")
			assert.False(t, p.IsBlacklisted(), "cause %v", cause)
			assert.Empty(t, te.reg.Events(), "cause %v", cause)
		}
	})

	t.Run("ConnectionErrorIsSilent", func(t *testing.T) {
		logs := testutil.CaptureLogs(t)
		te := newTestEnv(t)
		p := te.httpPeer(t, "1.2.3.4")

		cause := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		p.BlacklistWithCause(fmt.Errorf("get next blocks: %w", cause), "sync failed")
		assert.True(t, p.IsBlacklisted())
		assert.Equal(t, 0, logs.CountAtLeast(slog.LevelInfo), logs.String())
	})

	t.Run("OtherCauseLogged", func(t *testing.T) {
		logs := testutil.CaptureLogs(t)
		te := newTestEnv(t)
		p := te.httpPeer(t, "1.2.3.4")

		p.BlacklistWithCause(types.ErrInvalidBlock, "invalid block")
		assert.True(t, p.IsBlacklisted())
		assert.Equal(t, 1, logs.CountAtLeast(slog.LevelError), logs.String())

		// 已在黑名单中：仍记录错误，但不再输出 Info
		infoBefore := logs.CountAtLeast(slog.LevelInfo)
		p.BlacklistWithCause(types.ErrInvalidBlock, "invalid block")
		assert.Equal(t, infoBefore+1, logs.CountAtLeast(slog.LevelInfo), logs.String())
		assert.Equal(t, 2, logs.CountAtLeast(slog.LevelError))
	})

	t.Run("NilCause", func(t *testing.T) {
		te := newTestEnv(t)
		p := te.httpPeer(t, "1.2.3.4")
		p.BlacklistWithCause(nil, "manual")
		assert.True(t, p.IsBlacklisted())
		assert.Equal(t, 1, te.reg.EventsOf(types.EventBlacklist))
	})
}

func TestBlacklistWithDescription_LogsOnce(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	te := newTestEnv(t)
	p := te.httpPeer(t, "1.2.3.4")

	p.BlacklistWithDescription("spam")
	p.BlacklistWithDescription("spam")

	infos := 0
	for _, r := range logs.Records() {
		if r.Level == slog.LevelInfo && r.Message == "节点加入黑名单" {
			infos++
			assert.Equal(t, "spam", r.Attrs["reason"])
		}
	}
	assert.Equal(t, 1, infos)
	assert.Equal(t, 2, te.reg.EventsOf(types.EventBlacklist))
}

func TestIsConnectionError(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "peer.invalid", IsNotFound: true}

	assert.True(t, IsConnectionError(dnsErr))
	assert.True(t, IsConnectionError(context.DeadlineExceeded))
	assert.True(t, IsConnectionError(status.Error(codes.Unavailable, "down")))
	assert.False(t, IsConnectionError(status.Error(codes.InvalidArgument, "bad")))
	assert.True(t, IsConnectionError(fmt.Errorf("wrapped: %w", &net.OpError{Op: "read", Err: errors.New("reset")})))
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(types.ErrInvalidBlock))
	assert.False(t, IsConnectionError(fmt.Errorf("%w: boom", types.ErrPeerError)))
}
