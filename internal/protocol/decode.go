package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks a frame that is not valid JSON, has no usable type, or
// lacks a field its kind requires.
var ErrMalformed = errors.New("malformed frame")

// Decode parses one inbound frame. Unknown kinds decode to Unrecognized with
// a nil error; structural problems wrap ErrMalformed.
func Decode(raw []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kindRaw, ok := fields["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	var kind string
	if err := json.Unmarshal(kindRaw, &kind); err != nil || strings.TrimSpace(kind) == "" {
		return nil, fmt.Errorf("%w: type must be a non-empty string", ErrMalformed)
	}

	switch kind {
	case KindInfo:
		return decodeAs[Info](raw, fields)
	case KindError:
		ev, err := decodeAs[Error](raw, fields)
		if err != nil {
			return nil, err
		}
		if ev.Reason == "" {
			var alt struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(raw, &alt)
			ev.Reason = alt.Message
		}
		return ev, nil
	case KindStoryUpdate:
		return decodeAs[StoryUpdate](raw, fields, "turn_id")
	case KindImageUpdate:
		ev, err := decodeAs[ImageUpdate](raw, fields, "turn_id", "image")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(ev.Image) == "" {
			return nil, fmt.Errorf("%w: %s with empty image", ErrMalformed, kind)
		}
		return ev, nil
	case KindNarrativeUpdate:
		return decodeAs[NarrativeUpdate](raw, fields, "turn_id")
	case KindOverrideUpdate:
		return decodeAs[OverrideUpdate](raw, fields, "turn_id")
	case KindGraphUpdate:
		return decodeAs[GraphUpdate](raw, fields, "graph_delta")
	case KindVerdictUpdate:
		return decodeAs[VerdictUpdate](raw, fields)
	default:
		return Unrecognized{Type: kind, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func decodeAs[T Event](raw []byte, fields map[string]json.RawMessage, required ...string) (T, error) {
	var out T
	for _, key := range required {
		value, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return out, fmt.Errorf("%w: %s requires %q", ErrMalformed, out.Kind(), key)
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformed, out.Kind(), err)
	}
	return out, nil
}
