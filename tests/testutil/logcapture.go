package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
)

// CapturedRecord 捕获的一条日志
type CapturedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogCapture 捕获 slog 默认 logger 的输出
//
// 测试期间替换 slog.Default()，结束时自动恢复。
// 使用 LogCapture 的测试不能并行执行。
type LogCapture struct {
	mu      sync.Mutex
	records []CapturedRecord
}

// CaptureLogs 安装捕获 handler（捕获所有级别）
func CaptureLogs(t *testing.T) *LogCapture {
	t.Helper()

	c := &LogCapture{}
	prev := slog.Default()
	slog.SetDefault(slog.New(&captureHandler{c: c}))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return c
}

// Records 返回已捕获的日志
func (c *LogCapture) Records() []CapturedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CapturedRecord(nil), c.records...)
}

// CountAtLeast 返回级别不低于 level 的日志条数
func (c *LogCapture) CountAtLeast(level slog.Level) int {
	n := 0
	for _, r := range c.Records() {
		if r.Level >= level {
			n++
		}
	}
	return n
}

// String 以文本形式返回全部日志，便于失败时输出
func (c *LogCapture) String() string {
	var buf bytes.Buffer
	for _, r := range c.Records() {
		buf.WriteString(r.Level.String())
		buf.WriteByte(' ')
		buf.WriteString(r.Message)
		for k, v := range r.Attrs {
			buf.WriteString(" " + k + "=" + v)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

type captureHandler struct {
	c     *LogCapture
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	rec := CapturedRecord{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.c.mu.Lock()
	h.c.records = append(h.c.records, rec)
	h.c.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{c: h.c, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }
