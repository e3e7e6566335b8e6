package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformedFrame marks frames that are undecodable or miss required
// fields. Such frames are dropped; the connection is never closed for them.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the closed set of inbound frame kinds, decoded once at the
// boundary. Handlers consume the typed variant, never the raw JSON.
type Frame interface{ isFrame() }

type AuthFrame struct {
	UserID uuid.UUID
}

func (AuthFrame) isFrame() {}

type ChatMessageFrame struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Body       string
}

func (ChatMessageFrame) isFrame() {}

type TypingFrame struct {
	ToUserID uuid.UUID
	// Payload carries the remaining fields of the inbound frame untouched;
	// the typing relay forwards them as-is.
	Payload map[string]json.RawMessage
}

func (TypingFrame) isFrame() {}

type UnknownFrame struct {
	Type string
}

func (UnknownFrame) isFrame() {}

// DecodeFrame decodes one inbound frame into its tagged variant. A frame
// with an unrecognized type decodes to UnknownFrame; a frame that cannot be
// decoded at all, or misses required fields, returns ErrMalformedFrame.
func DecodeFrame(data []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	frameType, err := stringField(fields, "type")
	if err != nil {
		return nil, err
	}

	switch frameType {
	case "auth":
		userID, err := uuidField(fields, "userId")
		if err != nil {
			return nil, err
		}
		return AuthFrame{UserID: userID}, nil

	case "message":
		from, err := uuidField(fields, "fromUserId")
		if err != nil {
			return nil, err
		}
		to, err := uuidField(fields, "toUserId")
		if err != nil {
			return nil, err
		}
		body, err := stringField(fields, "message")
		if err != nil {
			return nil, err
		}
		return ChatMessageFrame{FromUserID: from, ToUserID: to, Body: body}, nil

	case "typing":
		to, err := uuidField(fields, "toUserId")
		if err != nil {
			return nil, err
		}
		payload := make(map[string]json.RawMessage, len(fields))
		for key, value := range fields {
			if key == "type" || key == "toUserId" {
				continue
			}
			payload[key] = value
		}
		return TypingFrame{ToUserID: to, Payload: payload}, nil

	default:
		return UnknownFrame{Type: frameType}, nil
	}
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedFrame, key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: field %q: %v", ErrMalformedFrame, key, err)
	}
	if value == "" {
		return "", fmt.Errorf("%w: empty %q", ErrMalformedFrame, key)
	}
	return value, nil
}

func uuidField(fields map[string]json.RawMessage, key string) (uuid.UUID, error) {
	value, err := stringField(fields, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: field %q: %v", ErrMalformedFrame, key, err)
	}
	return id, nil
}
