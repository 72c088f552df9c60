package jsonwire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-brs/pkg/types"
)

func TestParseIDs(t *testing.T) {
	raw := []string{"1", "0", "x", "18446744073709551615", "5", "6"}

	assert.Equal(t, []uint64{1, 18446744073709551615, 5, 6}, ParseIDs(raw, 0))
	assert.Equal(t, []uint64{1, 18446744073709551615}, ParseIDs(raw, 4))
	assert.Empty(t, ParseIDs(nil, 10))
	assert.Equal(t, []string{"1", "18446744073709551615"}, FormatIDs([]uint64{1, 18446744073709551615}))
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"protocol":"B1","requestType":"getPeers"}`))
	require.NoError(t, err)
	assert.Equal(t, RequestGetPeers, env.RequestType)

	_, err = DecodeEnvelope([]byte(`{"protocol":"B2","requestType":"getPeers"}`))
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)

	_, err = DecodeEnvelope([]byte(`{"protocol":"B1"}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRequestShape(t *testing.T) {
	body, err := Marshal(MilestoneBlockIDsRequest{
		Envelope:             NewEnvelope(RequestGetMilestoneBlockIDs),
		LastMilestoneBlockID: "42",
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "B1", m["protocol"])
	assert.Equal(t, "getMilestoneBlockIds", m["requestType"])
	assert.Equal(t, "42", m["lastMilestoneBlockId"])
	assert.NotContains(t, m, "lastBlockId")
}

func TestStatusErr(t *testing.T) {
	assert.NoError(t, Status{}.Err())

	err := Status{Error: "unknown block"}.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPeerError))
	assert.Contains(t, err.Error(), "unknown block")

	var resp PeersResponse
	require.NoError(t, Unmarshal([]byte(`{"error":"busy"}`), &resp))
	assert.ErrorIs(t, resp.Err(), types.ErrPeerError)
}

func TestReadBody(t *testing.T) {
	payload := []byte(`{"peers":["1.2.3.4:8123"]}`)

	t.Run("Plain", func(t *testing.T) {
		var resp PeersResponse
		require.NoError(t, ReadBody(bytes.NewReader(payload), "", &resp))
		assert.Equal(t, []string{"1.2.3.4:8123"}, resp.Peers)
	})

	t.Run("Gzip", func(t *testing.T) {
		compressed, err := Gzip(payload)
		require.NoError(t, err)

		counter := NewCountingReader(bytes.NewReader(compressed))
		var resp PeersResponse
		require.NoError(t, ReadBody(counter, "GZIP", &resp))
		assert.Equal(t, []string{"1.2.3.4:8123"}, resp.Peers)
		assert.LessOrEqual(t, counter.Count(), int64(len(compressed)))
		assert.Positive(t, counter.Count())
	})

	t.Run("BadGzip", func(t *testing.T) {
		var resp PeersResponse
		assert.ErrorIs(t, ReadBody(bytes.NewReader(payload), "gzip", &resp), ErrMalformed)
	})

	t.Run("ReadErrorKeepsCause", func(t *testing.T) {
		r := io.MultiReader(strings.NewReader(`{"peers":["1.2`), iotest.ErrReader(context.DeadlineExceeded))
		var resp PeersResponse
		err := ReadBody(r, "", &resp)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBlockJSON(t *testing.T) {
	block := &types.Block{
		ID:                  1005,
		Version:             3,
		Timestamp:           1200,
		PreviousBlockID:     1004,
		PreviousBlockHash:   []byte{0xde, 0xad},
		Height:              5,
		TotalAmountNQT:      500,
		TotalFeeNQT:         5,
		PayloadHash:         []byte{0x01},
		GeneratorPublicKey:  []byte{0x02},
		GenerationSignature: []byte{0x03},
		BlockSignature:      []byte{0x04},
		Nonce:               35,
		BaseTarget:          18325193796,
		Transactions: []*types.Transaction{{
			ID: 77, Deadline: 1440, SenderPublicKey: []byte{0x0a}, RecipientID: 78, AmountNQT: 1, FeeNQT: 1, Signature: []byte{0x0b},
		}},
	}

	j := BlockToJSON(block)
	assert.Equal(t, "1005", j.Block)
	assert.Equal(t, "1004", j.PreviousBlockID)
	assert.Equal(t, "dead", j.PreviousBlockHash)
	assert.Equal(t, "18325193796", j.BaseTarget)

	// 高度不在线上传输，由接收方指定
	got, err := j.ToBlock(99)
	require.NoError(t, err)
	assert.Equal(t, int32(99), got.Height)
	got.Height = block.Height
	assert.Equal(t, block, got)

	t.Run("Genesis", func(t *testing.T) {
		j := BlockToJSON(&types.Block{ID: 1000})
		assert.Empty(t, j.PreviousBlockID)
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := j
		bad.PayloadHash = "zz"
		_, err := bad.ToBlock(1)
		assert.ErrorIs(t, err, ErrMalformed)

		bad = j
		bad.Block = "-1"
		_, err = bad.ToBlock(1)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}
