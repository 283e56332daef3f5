package locate

import (
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"remotehands/pkg/geometry"
)

// ransacIterations bounds the homography fit. The correspondence set is
// capped small, so this converges well before the limit.
const ransacIterations = 2000

// FeatureMatcher locates a template by ORB keypoint matching with geometric
// verification. It handles scale changes and slight rotation, but needs the
// template to carry enough local structure to produce descriptors; bland
// templates are rejected early and left to the correlation scanners.
type FeatureMatcher struct {
	params Params
}

// NewFeatureMatcher creates a feature-based scanner.
func NewFeatureMatcher(params Params) *FeatureMatcher {
	return &FeatureMatcher{params: params}
}

// Method identifies this scanner's matches.
func (f *FeatureMatcher) Method() Method { return MethodFeature }

// TryLocate finds the template center in the capture, or reports no match.
func (f *FeatureMatcher) TryLocate(tpl SearchImage, screen gocv.Mat) (Match, bool) {
	tplMat := tpl.Original()

	tplGray := toGray(tplMat)
	defer tplGray.Close()
	scrGray := toGray(screen)
	defer scrGray.Close()

	// Large feature budget and a reduced border margin: templates are small
	// crops, so features near their edges must survive.
	orb := gocv.NewORBWithParams(f.params.MaxKeypoints, 1.2, 8,
		f.params.ORBEdgeThreshold, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	tplKeypoints, tplDesc := orb.DetectAndCompute(tplGray, mask)
	defer tplDesc.Close()
	if len(tplKeypoints) < f.params.MinKeypoints || tplDesc.Empty() {
		return Match{}, false
	}

	scrKeypoints, scrDesc := orb.DetectAndCompute(scrGray, mask)
	defer scrDesc.Close()
	if len(scrKeypoints) < 2 || scrDesc.Empty() {
		return Match{}, false
	}

	good := f.ratioTest(tplDesc, scrDesc)
	if len(good) < f.params.MinCorrespondences {
		return Match{}, false
	}

	// Best-scoring subset only; weak tail correspondences drag the fit.
	sort.Slice(good, func(i, j int) bool { return good[i].Distance < good[j].Distance })
	if len(good) > f.params.MaxCorrespondences {
		good = good[:f.params.MaxCorrespondences]
	}

	src := make([]geometry.Point2D, len(good))
	dst := make([]geometry.Point2D, len(good))
	for i, m := range good {
		kt := tplKeypoints[m.QueryIdx]
		ks := scrKeypoints[m.TrainIdx]
		src[i] = geometry.Point2D{X: kt.X, Y: kt.Y}
		dst[i] = geometry.Point2D{X: ks.X, Y: ks.Y}
	}

	transform, inliers, err := computeHomographyRANSAC(src, dst, ransacIterations, f.params.HomographyThreshold)
	if err != nil {
		return Match{}, false
	}

	// Scattered matches across the screen mean descriptor noise, not one
	// coherent object.
	if spreadExceeds(dst, f.params.MaxSpread) {
		return Match{}, false
	}

	inlierRatio := float64(len(inliers)) / float64(len(good))
	if inlierRatio < f.params.MinInlierRatio {
		return Match{}, false
	}

	w := float64(tplMat.Cols())
	h := float64(tplMat.Rows())
	corners := []geometry.Point2D{
		transform.Apply(geometry.Point2D{X: 0, Y: 0}),
		transform.Apply(geometry.Point2D{X: w, Y: 0}),
		transform.Apply(geometry.Point2D{X: w, Y: h}),
		transform.Apply(geometry.Point2D{X: 0, Y: h}),
	}
	center := geometry.Centroid(corners)

	bounds := geometry.NewRect(0, 0, float64(screen.Cols()-1), float64(screen.Rows()-1))
	if !bounds.Contains(center) {
		return Match{}, false
	}

	pt := center.ToInt()
	return Match{X: pt.X, Y: pt.Y, Score: clampScore(inlierRatio), Method: MethodFeature}, true
}

// ratioTest matches template descriptors against screen descriptors and
// keeps only unambiguous correspondences: the nearest neighbor must beat the
// second-nearest by the configured ratio.
func (f *FeatureMatcher) ratioTest(tplDesc, scrDesc gocv.Mat) []gocv.DMatch {
	matcher := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer matcher.Close()

	var good []gocv.DMatch
	for _, pair := range matcher.KnnMatch(tplDesc, scrDesc, 2) {
		if len(pair) < 2 {
			continue
		}
		if pair[0].Distance < f.params.RatioTest*pair[1].Distance {
			good = append(good, pair[0])
		}
	}
	return good
}

// spreadExceeds reports whether the standard deviation of the points
// exceeds limit on either axis.
func spreadExceeds(points []geometry.Point2D, limit float64) bool {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return stat.StdDev(xs, nil) > limit || stat.StdDev(ys, nil) > limit
}
