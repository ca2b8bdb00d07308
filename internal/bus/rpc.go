package bus

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rileyhilliard/statemon/internal/errors"
)

// Request is the envelope published on a service topic.
type Request struct {
	ID      string          `json:"id"`
	ReplyTo string          `json:"reply_to"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Reply is the envelope published back on the caller's reply topic.
type Reply struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// EncodeRequest wraps body in a Request with a fresh ID.
func EncodeRequest(replyTo string, body interface{}) (string, []byte, error) {
	raw, err := encodeBody(body)
	if err != nil {
		return "", nil, err
	}

	req := Request{
		ID:      uuid.NewString(),
		ReplyTo: replyTo,
		Body:    raw,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", nil, errors.WrapWithCode(err, errors.ErrBus,
			"Cannot encode request envelope", "")
	}
	return req.ID, data, nil
}

// Decode unpacks a reply into resp. A reply with OK unset is returned as an
// ErrReset error carrying the remote message.
func (r Reply) Decode(service string, resp interface{}) error {
	if !r.OK {
		msg := r.Error
		if msg == "" {
			msg = "service reported failure"
		}
		return errors.WrapWithCode(fmt.Errorf("%s", msg), errors.ErrReset,
			"Call to "+service+" failed",
			"Check the estimator's own log for details")
	}
	if resp == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, resp); err != nil {
		return errors.WrapWithCode(err, errors.ErrDecode,
			"Cannot decode reply from "+service, "")
	}
	return nil
}

// Answer runs fn for an encoded request and returns where to send the reply
// and the encoded reply itself.
func Answer(payload []byte, fn ServiceFunc) (string, []byte, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", nil, errors.WrapWithCode(err, errors.ErrDecode,
			"Malformed request envelope", "")
	}
	if req.ReplyTo == "" {
		return "", nil, errors.New(errors.ErrDecode,
			"Request "+req.ID+" has no reply_to", "")
	}

	reply := Reply{ID: req.ID, OK: true}
	result, err := fn(req.Body)
	if err != nil {
		reply.OK = false
		reply.Error = errors.Summary(err)
	} else if reply.Body, err = encodeBody(result); err != nil {
		reply.OK = false
		reply.Error = errors.Summary(err)
		reply.Body = nil
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return "", nil, errors.WrapWithCode(err, errors.ErrBus,
			"Cannot encode reply envelope", "")
	}
	return req.ReplyTo, data, nil
}

func encodeBody(body interface{}) (json.RawMessage, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDecode,
			"Cannot encode message body", "")
	}
	return raw, nil
}
