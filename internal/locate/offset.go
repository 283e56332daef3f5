package locate

import (
	"fmt"
	"math"
)

// ClickTarget is a match coordinate with an offset applied. This is the
// final coordinate handed to input injection.
type ClickTarget struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OffsetComponent is one axis of an offset: either an absolute pixel delta
// or a fraction of the capture dimension on that axis.
type OffsetComponent struct {
	Fraction bool
	Value    float64
}

// Offset shifts a located coordinate. The offset is relative to the matched
// element, never to the template's own geometry, so it is applied after
// location against the current capture's dimensions.
type Offset struct {
	X OffsetComponent
	Y OffsetComponent
}

// ParseOffset classifies raw offset values. Whole numbers are pixel deltas;
// fractional values must lie strictly inside (-1, 1) and resolve as a
// percentage of screen width/height.
func ParseOffset(x, y float64) (Offset, error) {
	cx, err := parseOffsetComponent(x)
	if err != nil {
		return Offset{}, fmt.Errorf("offset x: %w", err)
	}
	cy, err := parseOffsetComponent(y)
	if err != nil {
		return Offset{}, fmt.Errorf("offset y: %w", err)
	}
	return Offset{X: cx, Y: cy}, nil
}

func parseOffsetComponent(v float64) (OffsetComponent, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OffsetComponent{}, fmt.Errorf("invalid offset value %v", v)
	}
	if v == math.Trunc(v) {
		return OffsetComponent{Value: v}, nil
	}
	if v > -1 && v < 1 {
		return OffsetComponent{Fraction: true, Value: v}, nil
	}
	return OffsetComponent{}, fmt.Errorf("fractional offset %v outside [-1, 1]", v)
}

// Apply resolves the offset against the capture dimensions and shifts the
// match coordinate.
func (o Offset) Apply(m Match, screenWidth, screenHeight int) ClickTarget {
	return ClickTarget{
		X: m.X + o.X.resolve(screenWidth),
		Y: m.Y + o.Y.resolve(screenHeight),
	}
}

func (c OffsetComponent) resolve(dimension int) int {
	if c.Fraction {
		return int(math.Round(c.Value * float64(dimension)))
	}
	return int(c.Value)
}
