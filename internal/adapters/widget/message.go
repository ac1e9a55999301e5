package widget

import (
	"encoding/json"
	"fmt"
)

// Message types posted by the widget frame.
const (
	MessageLoaded = "OPENTABLE_LOADED"
	MessageError  = "OPENTABLE_ERROR"
)

type message struct {
	Type string `json:"type"`
}

// ParseMessage decodes a postMessage payload relayed from the browser and
// returns the outcome it signals. Only messages from allowedOrigin are accepted.
func ParseMessage(origin, allowedOrigin string, data []byte) (Outcome, error) {
	if origin != allowedOrigin {
		return Pending, fmt.Errorf("%w: %q", ErrForeignOrigin, origin)
	}
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return Pending, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	switch m.Type {
	case MessageLoaded:
		return Loaded, nil
	case MessageError:
		return Failed, nil
	default:
		return Pending, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
}
