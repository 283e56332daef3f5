// Package capture provides the agent's view of the desktop: screen grabs as
// pixel matrices, PNG evidence encoding, and pointer input. The locator
// never owns any of this; it only consumes the buffers.
package capture

import (
	"encoding/base64"
	"fmt"

	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"
)

// Capturer supplies a fresh screen capture on demand. The returned Mat is
// owned by the caller, which must Close it.
type Capturer interface {
	Capture() (gocv.Mat, error)
}

// Pointer injects mouse input.
type Pointer interface {
	Move(x, y int)
	MoveRelative(dx, dy int)
	Click(x, y int, button string)
	ClickCurrent(button string)
	Position() (int, int)
	ScreenSize() (int, int)
}

// ScreenCapturer grabs the full primary display.
type ScreenCapturer struct{}

// Capture returns the current screen contents as a 3-channel Mat.
func (ScreenCapturer) Capture() (gocv.Mat, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("capture screen: %w", err)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert capture: %w", err)
	}
	return mat, nil
}

// SystemPointer drives the real mouse.
type SystemPointer struct{}

// Move positions the cursor at absolute screen coordinates.
func (SystemPointer) Move(x, y int) {
	robotgo.Move(x, y)
}

// MoveRelative shifts the cursor from its current position.
func (SystemPointer) MoveRelative(dx, dy int) {
	robotgo.MoveRelative(dx, dy)
}

// Click moves to the coordinate and presses the given button.
func (SystemPointer) Click(x, y int, button string) {
	robotgo.Move(x, y)
	robotgo.Click(button)
}

// ClickCurrent presses the given button at the current cursor position.
func (SystemPointer) ClickCurrent(button string) {
	robotgo.Click(button)
}

// Position returns the current cursor coordinates.
func (SystemPointer) Position() (int, int) {
	return robotgo.Location()
}

// ScreenSize returns the primary display dimensions.
func (SystemPointer) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// EncodePNG serializes a Mat as a base64 PNG string for transport.
func EncodePNG(mat gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()
	return base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}
