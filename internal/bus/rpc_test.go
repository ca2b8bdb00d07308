package bus

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest(t *testing.T) {
	id, data, err := EncodeRequest("statemon/me/reply", msgs.InitScaleRequest{Scale: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var req Request
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, id, req.ID)
	assert.Equal(t, "statemon/me/reply", req.ReplyTo)
	assert.JSONEq(t, `{"scale":1}`, string(req.Body))

	id2, _, err := EncodeRequest("statemon/me/reply", nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2, "each request gets its own id")
}

func TestAnswer_Success(t *testing.T) {
	_, data, err := EncodeRequest("replies", msgs.InitScaleRequest{Scale: 2})
	require.NoError(t, err)

	replyTo, out, err := Answer(data, func(body json.RawMessage) (interface{}, error) {
		var req msgs.InitScaleRequest
		require.NoError(t, json.Unmarshal(body, &req))
		return msgs.InitScaleResponse{Result: fmt.Sprintf("scale %.1f", req.Scale)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "replies", replyTo)

	var reply Reply
	require.NoError(t, json.Unmarshal(out, &reply))
	assert.True(t, reply.OK)

	var resp msgs.InitScaleResponse
	require.NoError(t, reply.Decode("svc", &resp))
	assert.Equal(t, "scale 2.0", resp.Result)
}

func TestAnswer_ServiceError(t *testing.T) {
	_, data, err := EncodeRequest("replies", msgs.Empty{})
	require.NoError(t, err)

	_, out, err := Answer(data, func(json.RawMessage) (interface{}, error) {
		return nil, fmt.Errorf("filter not initialised")
	})
	require.NoError(t, err)

	var reply Reply
	require.NoError(t, json.Unmarshal(out, &reply))
	assert.False(t, reply.OK)

	decodeErr := reply.Decode("a/reset", nil)
	require.Error(t, decodeErr)
	assert.True(t, errors.IsCode(decodeErr, errors.ErrReset))
	assert.Contains(t, decodeErr.Error(), "filter not initialised")
	assert.Contains(t, decodeErr.Error(), "a/reset")
}

func TestAnswer_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "nope"},
		{"missing reply_to", `{"id":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Answer([]byte(tt.payload), func(json.RawMessage) (interface{}, error) {
				t.Fatal("service must not run for a malformed request")
				return nil, nil
			})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrDecode))
		})
	}
}

func TestReply_DecodeBadBody(t *testing.T) {
	reply := Reply{ID: "1", OK: true, Body: json.RawMessage(`"text"`)}
	var resp msgs.InitScaleResponse
	err := reply.Decode("svc", &resp)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDecode))

	// A nil destination ignores the body
	assert.NoError(t, reply.Decode("svc", nil))
}
