// Package locate finds reference templates inside screen captures and turns
// a recognized element into a clickable coordinate.
//
// Three strategies run as a fallback chain: keypoint/descriptor matching for
// templates with distinctive structure, multi-scale correlation fusion for
// flat or low-resolution templates, and an edge-only last resort for
// elements whose color or contrast drifted between template and live screen.
package locate

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Method identifies which strategy produced a match.
type Method string

const (
	MethodFeature     Method = "feature"
	MethodCorrelation Method = "correlation"
	MethodEdge        Method = "edge"
)

// Match is one candidate location of a template's center in a capture.
type Match struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Score  float64 `json:"score"` // confidence in [0, 1]
	Method Method  `json:"method"`
}

// MatchSet is an ordered, deduplicated sequence of matches. No two entries
// are closer than half the template's larger dimension, and entries are
// sorted along the dominant layout axis.
type MatchSet []Match

// Scanner locates a template in a screen capture. Absence of a match is a
// normal outcome reported through the second return value, never an error.
type Scanner interface {
	Method() Method
	TryLocate(tpl SearchImage, screen gocv.Mat) (Match, bool)
}

// SearchImage is the portion of a template a scanner needs: the decoded
// pixels plus the working (possibly upscaled) variant.
type SearchImage interface {
	Original() gocv.Mat
	Search() gocv.Mat
}

// IndexOutOfRangeError reports a requested occurrence index beyond what was
// found on screen. Count lets the caller adjust its request.
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("match index %d out of range: found %d instance(s)", e.Index, e.Count)
}
