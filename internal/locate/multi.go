package locate

import (
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"remotehands/pkg/geometry"
)

// MultiInstanceFinder finds every occurrence of a template on screen, for
// callers that need a specific one among several (left vs. right arrow
// sharing a single template). A single native-scale color correlation is
// enough here: repeated instances of one element render at one size.
type MultiInstanceFinder struct {
	params Params
}

// NewMultiInstanceFinder creates a finder for repeated template occurrences.
func NewMultiInstanceFinder(params Params) *MultiInstanceFinder {
	return &MultiInstanceFinder{params: params}
}

// FindAll returns every occurrence scoring above the threshold,
// deduplicated so no two matches are closer than half the template's larger
// dimension, ordered along the dominant layout axis. An empty set is a
// valid outcome.
func (f *MultiInstanceFinder) FindAll(tpl SearchImage, screen gocv.Mat) MatchSet {
	tplMat := tpl.Original()
	w, h := tplMat.Cols(), tplMat.Rows()
	if w > screen.Cols() || h > screen.Rows() {
		return nil
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(screen, tplMat, &result, gocv.TmCcoeffNormed, mask)

	threshold := float32(f.params.MultiThreshold)
	var candidates []Match
	for y := 0; y < result.Rows(); y++ {
		for x := 0; x < result.Cols(); x++ {
			score := result.GetFloatAt(y, x)
			if score >= threshold {
				candidates = append(candidates, Match{
					X:      x + w/2,
					Y:      y + h/2,
					Score:  clampScore(float64(score)),
					Method: MethodCorrelation,
				})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	// Non-max suppression by center distance, not box overlap: UI elements
	// never half-overlap themselves.
	minDist := float64(max(w, h)) / 2
	var accepted MatchSet
	for _, cand := range candidates {
		tooClose := false
		p := geometry.Point2D{X: float64(cand.X), Y: float64(cand.Y)}
		for _, a := range accepted {
			if p.Distance(geometry.Point2D{X: float64(a.X), Y: float64(a.Y)}) <= minDist {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, cand)
		}
	}

	sortByLayoutAxis(accepted)
	return accepted
}

// sortByLayoutAxis orders matches by x when they spread horizontally more
// than vertically, else by y.
func sortByLayoutAxis(set MatchSet) {
	if len(set) < 2 {
		return
	}

	xs := make([]float64, len(set))
	ys := make([]float64, len(set))
	for i, m := range set {
		xs[i] = float64(m.X)
		ys[i] = float64(m.Y)
	}

	if stat.Variance(xs, nil) >= stat.Variance(ys, nil) {
		sort.Slice(set, func(i, j int) bool { return set[i].X < set[j].X })
	} else {
		sort.Slice(set, func(i, j int) bool { return set[i].Y < set[j].Y })
	}
}
