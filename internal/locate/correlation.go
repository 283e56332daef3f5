package locate

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// CorrelationScanner locates a template by multi-scale correlation over
// three representations of the same pixels: raw color, Canny edge maps, and
// adaptive-threshold binarizations. It is the fallback for templates too
// flat or too small for descriptor matching.
type CorrelationScanner struct {
	params Params
}

// NewCorrelationScanner creates a correlation-based scanner.
func NewCorrelationScanner(params Params) *CorrelationScanner {
	return &CorrelationScanner{params: params}
}

// Method identifies this scanner's matches.
func (c *CorrelationScanner) Method() Method { return MethodCorrelation }

// TryLocate sweeps the scale range, scoring each representation at each
// scale and fusing the scores, and returns the globally best location if it
// clears the confidence floor.
func (c *CorrelationScanner) TryLocate(tpl SearchImage, screen gocv.Mat) (Match, bool) {
	work := tpl.Search()

	scrEdges := cannyEdges(screen, c.params.CannyLow, c.params.CannyHigh)
	defer scrEdges.Close()
	scrBinary := adaptiveBinarize(screen)
	defer scrBinary.Close()

	bestScore := math.Inf(-1)
	var bestLoc image.Point
	var bestW, bestH int

	for scale := c.params.MinScale; scale <= c.params.MaxScale+1e-9; scale += c.params.ScaleStep {
		w := int(math.Round(float64(work.Cols()) * scale))
		h := int(math.Round(float64(work.Rows()) * scale))
		if w < 8 || h < 8 || w > screen.Cols() || h > screen.Rows() {
			continue
		}

		resized := resizeTo(work, w, h)

		colorScore, colorLoc := matchPeak(screen, resized)

		tplEdges := cannyEdges(resized, c.params.CannyLow, c.params.CannyHigh)
		edgeScore, _ := matchPeak(scrEdges, tplEdges)
		tplEdges.Close()

		tplBinary := adaptiveBinarize(resized)
		binaryScore, _ := matchPeak(scrBinary, tplBinary)
		tplBinary.Close()

		resized.Close()

		combined := c.params.ColorWeight*colorScore +
			c.params.EdgeWeight*edgeScore +
			c.params.ThresholdWeight*binaryScore

		if combined > bestScore {
			bestScore = combined
			bestLoc = colorLoc
			bestW, bestH = w, h
		}
	}

	if bestScore < c.params.CorrelationFloor {
		return Match{}, false
	}

	return Match{
		X:      bestLoc.X + bestW/2,
		Y:      bestLoc.Y + bestH/2,
		Score:  clampScore(bestScore),
		Method: MethodCorrelation,
	}, true
}
