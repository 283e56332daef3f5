// Package agent executes remote automation commands against the local
// desktop: locate a UI element by template, click it, and report screenshot
// evidence back through the relay.
package agent

import (
	"encoding/json"
	"fmt"
)

// Command is a single instruction received from a controller via the relay.
// Fields beyond Action apply only to the actions that use them.
type Command struct {
	Action   string `json:"action"`
	ClientID string `json:"client_id,omitempty"`

	// click_element
	Element    string          `json:"element,omitempty"`
	Index      int             `json:"index,omitempty"`
	Offset     *OffsetSpec     `json:"offset,omitempty"`
	Button     string          `json:"button,omitempty"`
	Screenshot json.RawMessage `json:"screenshot,omitempty"`

	// move_cursor, move_relative, click
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
}

// OffsetSpec is the wire form of a click offset. Whole numbers are pixel
// deltas; fractional values in (-1, 1) are percentages of the screen size.
type OffsetSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Response is the structured result sent back to the controller.
type Response struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ClickData is the data payload of a click_element response. Screenshot
// fields are present but null when capture was disabled for that side.
type ClickData struct {
	ClickedAt        Point   `json:"clicked_at"`
	BeforeScreenshot *string `json:"before_screenshot"`
	AfterScreenshot  *string `json:"after_screenshot"`
}

// Point is an integer screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CursorData is the data payload of cursor movement and position responses.
type CursorData struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	ScreenWidth  *int `json:"screen_width,omitempty"`
	ScreenHeight *int `json:"screen_height,omitempty"`
}

// ScreenshotConfig selects which evidence screenshots to capture around a
// click.
type ScreenshotConfig struct {
	Before bool
	After  bool
}

// ParseScreenshotConfig accepts the wire forms the controller may send:
// absent (both), a bare bool (both or neither), or {"before": b, "after": b}.
func ParseScreenshotConfig(raw json.RawMessage) (ScreenshotConfig, error) {
	if len(raw) == 0 {
		return ScreenshotConfig{Before: true, After: true}, nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return ScreenshotConfig{Before: b, After: b}, nil
	}

	var obj struct {
		Before *bool `json:"before"`
		After  *bool `json:"after"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ScreenshotConfig{}, fmt.Errorf("invalid screenshot config: %s", raw)
	}

	cfg := ScreenshotConfig{Before: true, After: true}
	if obj.Before != nil {
		cfg.Before = *obj.Before
	}
	if obj.After != nil {
		cfg.After = *obj.After
	}
	return cfg, nil
}

// validButtons are the mouse buttons input injection accepts.
var validButtons = map[string]bool{
	"left":   true,
	"right":  true,
	"middle": true,
}

// normalizeButton applies the default button and rejects unknown values
// before any scanning work happens.
func normalizeButton(button string) (string, error) {
	if button == "" {
		return "left", nil
	}
	if !validButtons[button] {
		return "", fmt.Errorf("invalid button: %s", button)
	}
	return button, nil
}

func successResponse(data any, format string, args ...any) Response {
	return Response{
		Type:    "response",
		Status:  "success",
		Message: fmt.Sprintf(format, args...),
		Data:    data,
	}
}

func errorResponse(format string, args ...any) Response {
	return Response{
		Type:    "response",
		Status:  "error",
		Message: fmt.Sprintf(format, args...),
	}
}
