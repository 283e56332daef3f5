package locate

// Params controls the matching behavior of all scanners. The defaults were
// tuned against one application's UI at one resolution; deployments against
// a different theme or DPI are expected to adjust them through configuration
// rather than recompile.
type Params struct {
	// Keypoint matching
	MaxKeypoints        int     `json:"max_keypoints"`         // ORB feature budget per image
	ORBEdgeThreshold    int     `json:"orb_edge_threshold"`    // border margin; small so edge features on tiny crops survive
	RatioTest           float64 `json:"ratio_test"`            // nearest/second-nearest distance ratio
	MinKeypoints        int     `json:"min_keypoints"`         // below this the template is too bland for descriptors
	MinCorrespondences  int     `json:"min_correspondences"`   // surviving ratio-test matches required
	MaxCorrespondences  int     `json:"max_correspondences"`   // best-scoring subset fed to the homography fit
	HomographyThreshold float64 `json:"homography_threshold"`  // RANSAC inlier distance in pixels
	MaxSpread           float64 `json:"max_spread"`            // stddev of matched screen points; above this the matches are scattered noise
	MinInlierRatio      float64 `json:"min_inlier_ratio"`      // fraction of correspondences the fitted transform must explain

	// Correlation sweep
	MinScale  float64 `json:"min_scale"`
	MaxScale  float64 `json:"max_scale"`
	ScaleStep float64 `json:"scale_step"`

	// Score fusion. Color correlation fails under brightness drift, edge
	// correlation fails on flat color blocks, threshold correlation absorbs
	// compression artifacts; the weighted sum covers all three.
	ColorWeight     float64 `json:"color_weight"`
	EdgeWeight      float64 `json:"edge_weight"`
	ThresholdWeight float64 `json:"threshold_weight"`

	// Confidence floors
	CorrelationFloor float64 `json:"correlation_floor"`
	EdgeFloor        float64 `json:"edge_floor"` // lower; edges alone are less discriminative
	MultiThreshold   float64 `json:"multi_threshold"`

	// Canny thresholds shared by the edge representations
	CannyLow  float64 `json:"canny_low"`
	CannyHigh float64 `json:"canny_high"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MaxKeypoints:        3000,
		ORBEdgeThreshold:    10,
		RatioTest:           0.75,
		MinKeypoints:        10,
		MinCorrespondences:  10,
		MaxCorrespondences:  20,
		HomographyThreshold: 5.0,
		MaxSpread:           100,
		MinInlierRatio:      0.6,

		MinScale:  0.5,
		MaxScale:  1.5,
		ScaleStep: 0.1,

		ColorWeight:     0.5,
		EdgeWeight:      0.3,
		ThresholdWeight: 0.2,

		CorrelationFloor: 0.55,
		EdgeFloor:        0.45,
		MultiThreshold:   0.6,

		CannyLow:  50,
		CannyHigh: 150,
	}
}

// Validate clamps values to safe ranges, falling back to defaults for
// anything unusable.
func (p *Params) Validate() {
	def := DefaultParams()

	if p.MaxKeypoints <= 0 {
		p.MaxKeypoints = def.MaxKeypoints
	}
	if p.ORBEdgeThreshold <= 0 {
		p.ORBEdgeThreshold = def.ORBEdgeThreshold
	}
	if p.RatioTest <= 0 || p.RatioTest >= 1 {
		p.RatioTest = def.RatioTest
	}
	if p.MinKeypoints <= 0 {
		p.MinKeypoints = def.MinKeypoints
	}
	if p.MinCorrespondences <= 0 {
		p.MinCorrespondences = def.MinCorrespondences
	}
	if p.MaxCorrespondences < p.MinCorrespondences {
		p.MaxCorrespondences = def.MaxCorrespondences
	}
	if p.HomographyThreshold <= 0 {
		p.HomographyThreshold = def.HomographyThreshold
	}
	if p.MaxSpread <= 0 {
		p.MaxSpread = def.MaxSpread
	}
	if p.MinInlierRatio <= 0 || p.MinInlierRatio > 1 {
		p.MinInlierRatio = def.MinInlierRatio
	}

	if p.MinScale <= 0 {
		p.MinScale = def.MinScale
	}
	if p.MaxScale < p.MinScale {
		p.MaxScale = p.MinScale + 1.0
	}
	if p.ScaleStep <= 0 || p.ScaleStep > p.MaxScale-p.MinScale {
		p.ScaleStep = def.ScaleStep
	}

	total := p.ColorWeight + p.EdgeWeight + p.ThresholdWeight
	if total <= 0 {
		p.ColorWeight = def.ColorWeight
		p.EdgeWeight = def.EdgeWeight
		p.ThresholdWeight = def.ThresholdWeight
	}

	if p.CorrelationFloor <= 0 || p.CorrelationFloor > 1 {
		p.CorrelationFloor = def.CorrelationFloor
	}
	if p.EdgeFloor <= 0 || p.EdgeFloor > 1 {
		p.EdgeFloor = def.EdgeFloor
	}
	if p.MultiThreshold <= 0 || p.MultiThreshold > 1 {
		p.MultiThreshold = def.MultiThreshold
	}

	if p.CannyLow <= 0 {
		p.CannyLow = def.CannyLow
	}
	if p.CannyHigh <= p.CannyLow {
		p.CannyHigh = p.CannyLow * 3
	}
}
