package protocol

import (
	"encoding/json"

	"github.com/termlink/termlink/internal/errors"
)

// ConnectSetting carries the per-session settings delivered with CONNECT.
type ConnectSetting struct {
	// TransferDisabled suppresses the user-visible transfer notification.
	// The sentry still diverts binary frames while a transfer is active,
	// otherwise the raw stream would corrupt the display.
	TransferDisabled bool `json:"zmodemDisabled,omitempty"`
}

// ConnectUser identifies the user on whose behalf the session runs.
// The client treats it as opaque display data.
type ConnectUser struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// ConnectPayload is the CONNECT envelope payload.
type ConnectPayload struct {
	Setting ConnectSetting `json:"setting"`
	User    ConnectUser    `json:"user"`

	// Code is the share code for this session, if sharing is enabled.
	Code string `json:"code,omitempty"`
}

// InitPayload is the TERMINAL_INIT payload the client sends in response
// to CONNECT: the current display dimensions plus the share code.
type InitPayload struct {
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
	Code string `json:"code,omitempty"`
}

// ResizePayload is the TERMINAL_RESIZE payload.
type ResizePayload struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// ParseConnect decodes a CONNECT data field.
func ParseConnect(data string) (ConnectPayload, error) {
	var p ConnectPayload
	if data == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ConnectPayload{}, errors.Wrap(errors.CodeDecodeBadPayload, "invalid CONNECT payload", err)
	}
	return p, nil
}

// ParseResize decodes a TERMINAL_RESIZE data field.
func ParseResize(data string) (ResizePayload, error) {
	var p ResizePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ResizePayload{}, errors.Wrap(errors.CodeDecodeBadPayload, "invalid TERMINAL_RESIZE payload", err)
	}
	return p, nil
}

// MarshalInit encodes a TERMINAL_INIT data field.
func MarshalInit(p InitPayload) string {
	b, _ := json.Marshal(p)
	return string(b)
}

// MarshalResize encodes a TERMINAL_RESIZE data field.
func MarshalResize(cols, rows int) string {
	b, _ := json.Marshal(ResizePayload{Cols: cols, Rows: rows})
	return string(b)
}
