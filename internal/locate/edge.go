package locate

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// EdgeScanner locates a template by correlating dilated edge maps only.
// It is the last resort for elements whose color or contrast drifted
// between template and live capture but whose edge structure is intact.
// The confidence floor sits below the correlation scanner's: edges alone
// are less discriminative.
type EdgeScanner struct {
	params Params
}

// NewEdgeScanner creates an edge-only scanner.
func NewEdgeScanner(params Params) *EdgeScanner {
	return &EdgeScanner{params: params}
}

// Method identifies this scanner's matches.
func (e *EdgeScanner) Method() Method { return MethodEdge }

// TryLocate sweeps the scale range over dilated edge maps and returns the
// best location if it clears the edge confidence floor.
func (e *EdgeScanner) TryLocate(tpl SearchImage, screen gocv.Mat) (Match, bool) {
	work := tpl.Search()

	rawEdges := cannyEdges(screen, e.params.CannyLow, e.params.CannyHigh)
	scrEdges := dilate3(rawEdges)
	rawEdges.Close()
	defer scrEdges.Close()

	bestScore := math.Inf(-1)
	var bestLoc image.Point
	var bestW, bestH int

	for scale := e.params.MinScale; scale <= e.params.MaxScale+1e-9; scale += e.params.ScaleStep {
		w := int(math.Round(float64(work.Cols()) * scale))
		h := int(math.Round(float64(work.Rows()) * scale))
		if w < 8 || h < 8 || w > screen.Cols() || h > screen.Rows() {
			continue
		}

		resized := resizeTo(work, w, h)
		raw := cannyEdges(resized, e.params.CannyLow, e.params.CannyHigh)
		tplEdges := dilate3(raw)
		raw.Close()
		resized.Close()

		score, loc := matchPeak(scrEdges, tplEdges)
		tplEdges.Close()

		if score > bestScore {
			bestScore = score
			bestLoc = loc
			bestW, bestH = w, h
		}
	}

	if bestScore < e.params.EdgeFloor {
		return Match{}, false
	}

	return Match{
		X:      bestLoc.X + bestW/2,
		Y:      bestLoc.Y + bestH/2,
		Score:  clampScore(bestScore),
		Method: MethodEdge,
	}, true
}
