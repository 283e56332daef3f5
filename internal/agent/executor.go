package agent

import (
	"log/slog"

	"gocv.io/x/gocv"

	"remotehands/internal/capture"
	"remotehands/internal/locate"
)

// ElementLocator finds a template occurrence in a screen capture.
type ElementLocator interface {
	Locate(name string, screen gocv.Mat, index int) (locate.Match, bool, error)
}

// Executor dispatches commands to the locator and input collaborators.
// Every failure becomes a structured error response; nothing a single
// command does can take the agent down, so a sequence of commands keeps
// running past individual failures.
type Executor struct {
	locator  ElementLocator
	capturer capture.Capturer
	pointer  capture.Pointer
	encode   func(gocv.Mat) (string, error)
	log      *slog.Logger
}

// NewExecutor wires an executor from its collaborators.
func NewExecutor(locator ElementLocator, capturer capture.Capturer, pointer capture.Pointer, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		locator:  locator,
		capturer: capturer,
		pointer:  pointer,
		encode:   capture.EncodePNG,
		log:      log,
	}
}

// Execute runs one command and returns its structured result.
func (e *Executor) Execute(cmd Command) Response {
	e.log.Info("executing command", "action", cmd.Action, "element", cmd.Element)

	var resp Response
	switch cmd.Action {
	case "click_element":
		resp = e.clickElement(cmd)
	case "move_cursor":
		resp = e.moveCursor(cmd)
	case "move_relative":
		resp = e.moveRelative(cmd)
	case "click":
		resp = e.click(cmd)
	case "get_position":
		resp = e.getPosition()
	default:
		resp = errorResponse("unknown action: %s", cmd.Action)
	}

	if resp.Status != "success" {
		e.log.Warn("command failed", "action", cmd.Action, "message", resp.Message)
	}
	return resp
}

// clickElement locates a template on the live screen, applies the requested
// offset, and clicks. Input validation happens before any capture or
// scanning work.
func (e *Executor) clickElement(cmd Command) Response {
	if cmd.Element == "" {
		return errorResponse("missing element name")
	}

	button, err := normalizeButton(cmd.Button)
	if err != nil {
		return errorResponse("%v", err)
	}

	offset := locate.Offset{}
	if cmd.Offset != nil {
		offset, err = locate.ParseOffset(cmd.Offset.X, cmd.Offset.Y)
		if err != nil {
			return errorResponse("%v", err)
		}
	}

	shots, err := ParseScreenshotConfig(cmd.Screenshot)
	if err != nil {
		return errorResponse("%v", err)
	}

	screen, err := e.capturer.Capture()
	if err != nil {
		return errorResponse("screen capture failed: %v", err)
	}
	defer screen.Close()

	var before *string
	if shots.Before {
		if encoded, err := e.encode(screen); err == nil {
			before = &encoded
		} else {
			e.log.Warn("before screenshot failed", "error", err)
		}
	}

	match, found, err := e.locator.Locate(cmd.Element, screen, cmd.Index)
	if err != nil {
		return errorResponse("%v", err)
	}
	if !found {
		return errorResponse("element not found: %s", cmd.Element)
	}

	target := offset.Apply(match, screen.Cols(), screen.Rows())
	e.pointer.Click(target.X, target.Y, button)

	var after *string
	if shots.After {
		if post, err := e.capturer.Capture(); err == nil {
			if encoded, err := e.encode(post); err == nil {
				after = &encoded
			} else {
				e.log.Warn("after screenshot failed", "error", err)
			}
			post.Close()
		} else {
			e.log.Warn("after screenshot failed", "error", err)
		}
	}

	data := ClickData{
		ClickedAt:        Point{X: target.X, Y: target.Y},
		BeforeScreenshot: before,
		AfterScreenshot:  after,
	}
	return successResponse(data, "clicked %s at (%d, %d) via %s [score %.2f]",
		cmd.Element, target.X, target.Y, match.Method, match.Score)
}

func (e *Executor) moveCursor(cmd Command) Response {
	if cmd.X == nil || cmd.Y == nil {
		return errorResponse("missing x or y coordinates")
	}
	e.pointer.Move(*cmd.X, *cmd.Y)
	x, y := e.pointer.Position()
	return successResponse(CursorData{X: x, Y: y}, "moved cursor to (%d, %d)", *cmd.X, *cmd.Y)
}

func (e *Executor) moveRelative(cmd Command) Response {
	dx, dy := 0, 0
	if cmd.X != nil {
		dx = *cmd.X
	}
	if cmd.Y != nil {
		dy = *cmd.Y
	}
	e.pointer.MoveRelative(dx, dy)
	x, y := e.pointer.Position()
	return successResponse(CursorData{X: x, Y: y}, "moved cursor by (%d, %d)", dx, dy)
}

func (e *Executor) click(cmd Command) Response {
	button, err := normalizeButton(cmd.Button)
	if err != nil {
		return errorResponse("%v", err)
	}

	if cmd.X != nil && cmd.Y != nil {
		e.pointer.Click(*cmd.X, *cmd.Y, button)
		return successResponse(nil, "clicked %s button at (%d, %d)", button, *cmd.X, *cmd.Y)
	}

	e.pointer.ClickCurrent(button)
	x, y := e.pointer.Position()
	return successResponse(nil, "clicked %s button at current position (%d, %d)", button, x, y)
}

func (e *Executor) getPosition() Response {
	x, y := e.pointer.Position()
	w, h := e.pointer.ScreenSize()
	return successResponse(CursorData{X: x, Y: y, ScreenWidth: &w, ScreenHeight: &h},
		"retrieved cursor position")
}
