package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"remotehands/internal/locate"
)

type fakeLocator struct {
	match locate.Match
	found bool
	err   error

	gotElement string
	gotIndex   int
}

func (f *fakeLocator) Locate(name string, screen gocv.Mat, index int) (locate.Match, bool, error) {
	f.gotElement = name
	f.gotIndex = index
	return f.match, f.found, f.err
}

type fakeCapturer struct {
	captures int
	err      error
}

func (f *fakeCapturer) Capture() (gocv.Mat, error) {
	if f.err != nil {
		return gocv.Mat{}, f.err
	}
	f.captures++
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(30, 30, 30, 0), 600, 800, gocv.MatTypeCV8UC3), nil
}

type click struct {
	x, y   int
	button string
}

type fakePointer struct {
	clicks []click
	moves  []Point
	x, y   int
}

func (f *fakePointer) Move(x, y int) {
	f.moves = append(f.moves, Point{X: x, Y: y})
	f.x, f.y = x, y
}

func (f *fakePointer) MoveRelative(dx, dy int) {
	f.x += dx
	f.y += dy
	f.moves = append(f.moves, Point{X: f.x, Y: f.y})
}

func (f *fakePointer) Click(x, y int, button string) {
	f.clicks = append(f.clicks, click{x: x, y: y, button: button})
	f.x, f.y = x, y
}

func (f *fakePointer) ClickCurrent(button string) {
	f.clicks = append(f.clicks, click{x: f.x, y: f.y, button: button})
}

func (f *fakePointer) Position() (int, int)   { return f.x, f.y }
func (f *fakePointer) ScreenSize() (int, int) { return 800, 600 }

func newTestExecutor(loc *fakeLocator) (*Executor, *fakeCapturer, *fakePointer) {
	capt := &fakeCapturer{}
	ptr := &fakePointer{}
	return NewExecutor(loc, capt, ptr, nil), capt, ptr
}

func TestClickElement(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 200, Y: 150, Score: 0.91, Method: locate.MethodFeature}, found: true}
	exec, _, ptr := newTestExecutor(loc)

	resp := exec.Execute(Command{Action: "click_element", Element: "save_button"})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "save_button", loc.gotElement)
	require.Len(t, ptr.clicks, 1)
	assert.Equal(t, click{x: 200, y: 150, button: "left"}, ptr.clicks[0])

	data, ok := resp.Data.(ClickData)
	require.True(t, ok)
	assert.Equal(t, Point{X: 200, Y: 150}, data.ClickedAt)
	assert.NotNil(t, data.BeforeScreenshot)
	assert.NotNil(t, data.AfterScreenshot)
}

func TestClickElementPixelOffset(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 500, Y: 500, Score: 0.8, Method: locate.MethodCorrelation}, found: true}
	exec, _, ptr := newTestExecutor(loc)

	resp := exec.Execute(Command{
		Action:     "click_element",
		Element:    "entry_field",
		Offset:     &OffsetSpec{X: -100, Y: 0},
		Screenshot: json.RawMessage("false"),
	})

	assert.Equal(t, "success", resp.Status)
	require.Len(t, ptr.clicks, 1)
	assert.Equal(t, 400, ptr.clicks[0].x)
	assert.Equal(t, 500, ptr.clicks[0].y)
}

func TestClickElementFractionalOffset(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 400, Y: 300, Score: 0.8, Method: locate.MethodCorrelation}, found: true}
	exec, _, ptr := newTestExecutor(loc)

	resp := exec.Execute(Command{
		Action:     "click_element",
		Element:    "entry_field",
		Offset:     &OffsetSpec{X: 0.1, Y: 0},
		Screenshot: json.RawMessage("false"),
	})

	// The fake capture is 800 wide, so 0.1 resolves to 80 pixels.
	assert.Equal(t, "success", resp.Status)
	require.Len(t, ptr.clicks, 1)
	assert.Equal(t, 480, ptr.clicks[0].x)
}

func TestClickElementNotFound(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{found: false})

	resp := exec.Execute(Command{Action: "click_element", Element: "gone_button"})

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "element not found: gone_button", resp.Message)
	assert.Empty(t, ptr.clicks)
}

func TestClickElementLocatorError(t *testing.T) {
	loc := &fakeLocator{err: &locate.IndexOutOfRangeError{Index: 3, Count: 2}}
	exec, _, ptr := newTestExecutor(loc)

	resp := exec.Execute(Command{Action: "click_element", Element: "row", Index: 3})

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "out of range")
	assert.Empty(t, ptr.clicks)
}

func TestClickElementInvalidButtonSkipsCapture(t *testing.T) {
	exec, capt, ptr := newTestExecutor(&fakeLocator{found: true})

	resp := exec.Execute(Command{Action: "click_element", Element: "btn", Button: "side"})

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "invalid button")
	assert.Zero(t, capt.captures)
	assert.Empty(t, ptr.clicks)
}

func TestClickElementMissingElement(t *testing.T) {
	exec, capt, _ := newTestExecutor(&fakeLocator{found: true})

	resp := exec.Execute(Command{Action: "click_element"})

	assert.Equal(t, "error", resp.Status)
	assert.Zero(t, capt.captures)
}

func TestClickElementCaptureFailure(t *testing.T) {
	loc := &fakeLocator{found: true}
	ptr := &fakePointer{}
	exec := NewExecutor(loc, &fakeCapturer{err: errors.New("no display")}, ptr, nil)

	resp := exec.Execute(Command{Action: "click_element", Element: "btn"})

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "screen capture failed")
	assert.Empty(t, ptr.clicks)
}

func TestClickElementEncodeFailureLogged(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 10, Y: 10, Score: 0.9, Method: locate.MethodFeature}, found: true}
	var logs bytes.Buffer
	exec := NewExecutor(loc, &fakeCapturer{}, &fakePointer{}, slog.New(slog.NewTextHandler(&logs, nil)))
	exec.encode = func(gocv.Mat) (string, error) { return "", errors.New("png encoder broken") }

	resp := exec.Execute(Command{Action: "click_element", Element: "btn"})

	// Evidence failure degrades the response, never the click.
	require.Equal(t, "success", resp.Status)
	data := resp.Data.(ClickData)
	assert.Nil(t, data.BeforeScreenshot)
	assert.Nil(t, data.AfterScreenshot)
	assert.Contains(t, logs.String(), "before screenshot failed")
	assert.Contains(t, logs.String(), "after screenshot failed")
}

func TestClickElementScreenshotOff(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 10, Y: 10, Score: 0.9, Method: locate.MethodEdge}, found: true}
	exec, capt, _ := newTestExecutor(loc)

	resp := exec.Execute(Command{
		Action:     "click_element",
		Element:    "btn",
		Screenshot: json.RawMessage(`{"before": false, "after": false}`),
	})

	require.Equal(t, "success", resp.Status)
	data := resp.Data.(ClickData)
	assert.Nil(t, data.BeforeScreenshot)
	assert.Nil(t, data.AfterScreenshot)
	// No after screenshot means no second capture.
	assert.Equal(t, 1, capt.captures)
}

func TestMoveCursor(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	x, y := 120, 340

	resp := exec.Execute(Command{Action: "move_cursor", X: &x, Y: &y})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 120, ptr.x)
	assert.Equal(t, 340, ptr.y)
}

func TestMoveCursorMissingCoordinates(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	x := 120

	resp := exec.Execute(Command{Action: "move_cursor", X: &x})

	assert.Equal(t, "error", resp.Status)
	assert.Empty(t, ptr.moves)
}

func TestMoveRelative(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	ptr.x, ptr.y = 100, 100
	dx, dy := 30, -20

	resp := exec.Execute(Command{Action: "move_relative", X: &dx, Y: &dy})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 130, ptr.x)
	assert.Equal(t, 80, ptr.y)
}

func TestClickAtCoordinates(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	x, y := 50, 60

	resp := exec.Execute(Command{Action: "click", X: &x, Y: &y, Button: "right"})

	assert.Equal(t, "success", resp.Status)
	require.Len(t, ptr.clicks, 1)
	assert.Equal(t, click{x: 50, y: 60, button: "right"}, ptr.clicks[0])
}

func TestClickCurrentPosition(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	ptr.x, ptr.y = 77, 88

	resp := exec.Execute(Command{Action: "click"})

	assert.Equal(t, "success", resp.Status)
	require.Len(t, ptr.clicks, 1)
	assert.Equal(t, click{x: 77, y: 88, button: "left"}, ptr.clicks[0])
}

func TestGetPosition(t *testing.T) {
	exec, _, ptr := newTestExecutor(&fakeLocator{})
	ptr.x, ptr.y = 15, 25

	resp := exec.Execute(Command{Action: "get_position"})

	require.Equal(t, "success", resp.Status)
	data := resp.Data.(CursorData)
	assert.Equal(t, 15, data.X)
	assert.Equal(t, 25, data.Y)
	require.NotNil(t, data.ScreenWidth)
	assert.Equal(t, 800, *data.ScreenWidth)
}

func TestUnknownAction(t *testing.T) {
	exec, _, _ := newTestExecutor(&fakeLocator{})

	resp := exec.Execute(Command{Action: "teleport"})

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "unknown action: teleport", resp.Message)
}

func TestSequenceContinuesPastFailures(t *testing.T) {
	loc := &fakeLocator{match: locate.Match{X: 5, Y: 5, Score: 0.9, Method: locate.MethodFeature}, found: true}
	exec, _, ptr := newTestExecutor(loc)

	statuses := []string{}
	for _, cmd := range []Command{
		{Action: "click_element", Element: "ok", Screenshot: json.RawMessage("false")},
		{Action: "click_element"}, // missing element
		{Action: "click_element", Element: "ok", Screenshot: json.RawMessage("false")},
	} {
		statuses = append(statuses, exec.Execute(cmd).Status)
	}

	assert.Equal(t, []string{"success", "error", "success"}, statuses)
	assert.Len(t, ptr.clicks, 2)
}
