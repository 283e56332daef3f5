package locate

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// toGray returns a single-channel copy of src. Caller owns the result.
func toGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// cannyEdges computes a Canny edge map of src. Caller owns the result.
func cannyEdges(src gocv.Mat, low, high float64) gocv.Mat {
	gray := toGray(src)
	defer gray.Close()

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, float32(low), float32(high))
	return edges
}

// adaptiveBinarize computes a Gaussian adaptive-threshold map of src.
// Caller owns the result.
func adaptiveBinarize(src gocv.Mat) gocv.Mat {
	gray := toGray(src)
	defer gray.Close()

	binary := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
	return binary
}

// dilate3 applies a 3x3 rectangular dilation, absorbing 1-2px positional
// jitter between edge maps. Caller owns the result.
func dilate3(src gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	dilated := gocv.NewMat()
	gocv.Dilate(src, &dilated, kernel)
	return dilated
}

// resizeTo resizes src to w x h, shrinking with area interpolation and
// growing with cubic. Caller owns the result.
func resizeTo(src gocv.Mat, w, h int) gocv.Mat {
	interp := gocv.InterpolationCubic
	if w < src.Cols() {
		interp = gocv.InterpolationArea
	}
	resized := gocv.NewMat()
	gocv.Resize(src, &resized, image.Pt(w, h), 0, 0, interp)
	return resized
}

// matchPeak runs normalized cross-correlation of tpl over screen and returns
// the best score and its top-left location. NaN scores (flat inputs) report
// as zero.
func matchPeak(screen, tpl gocv.Mat) (float64, image.Point) {
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(screen, tpl, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	score := float64(maxVal)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, maxLoc
	}
	return score, maxLoc
}

// clampScore limits a correlation score to [0, 1].
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
