package rpcwire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName gRPC content-subtype
const CodecName = "brsproto"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec gRPC 编解码器，只接受 Message
type Codec struct{}

var _ encoding.Codec = Codec{}

// Marshal 实现 encoding.Codec
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("rpcwire: cannot marshal %T", v)
	}
	return m.Marshal()
}

// Unmarshal 实现 encoding.Codec
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("rpcwire: cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}

// Name 实现 encoding.Codec
func (Codec) Name() string {
	return CodecName
}
