package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pollInterval Eventually 的轮询间隔
const pollInterval = 20 * time.Millisecond

// Eventually 在 timeout 内轮询 cond，始终不成立则终止测试
//
//	testutil.Eventually(t, time.Second, func() bool {
//	    return reg.EventsOf(types.EventActivated) > 0
//	}, "未触发激活事件")
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, timeout, pollInterval, msg)
}

// Context 返回在 timeout 或测试结束时取消的 context
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
