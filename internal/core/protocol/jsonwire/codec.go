package jsonwire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// MaxBodySize 单个载荷的上限（解压后）
const MaxBodySize = 16 << 20

// Marshal 编码请求或响应
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeEnvelope 解出请求信封
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := env.Check(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Unmarshal 解码载荷到 v
func Unmarshal(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// ReadBody 读取（可能压缩的）响应体并解码
//
// contentEncoding 为 "gzip" 时先解压。
func ReadBody(r io.Reader, contentEncoding string, v any) error {
	if strings.EqualFold(contentEncoding, "gzip") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("%w: gzip: %w", ErrMalformed, err)
		}
		defer zr.Close()
		r = zr
	}
	dec := json.NewDecoder(io.LimitReader(r, MaxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Gzip 压缩载荷
func Gzip(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ============================================================================
//                              字节计数
// ============================================================================

// CountingReader 统计读取的原始字节数
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader 包装 reader
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read 实现 io.Reader
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Count 已读取字节数
func (c *CountingReader) Count() int64 {
	return c.n
}
