package locate

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"remotehands/pkg/geometry"
)

// Homography is a 3x3 perspective transform mapping template coordinates
// into capture coordinates.
type Homography struct {
	// Row-major entries, normalized so m[2][2] == 1.
	m [3][3]float64
}

// Apply projects a point through the transform.
func (h Homography) Apply(p geometry.Point2D) geometry.Point2D {
	w := h.m[2][0]*p.X + h.m[2][1]*p.Y + h.m[2][2]
	if math.Abs(w) < 1e-12 {
		return geometry.Point2D{X: math.Inf(1), Y: math.Inf(1)}
	}
	return geometry.Point2D{
		X: (h.m[0][0]*p.X + h.m[0][1]*p.Y + h.m[0][2]) / w,
		Y: (h.m[1][0]*p.X + h.m[1][1]*p.Y + h.m[1][2]) / w,
	}
}

// computeHomographyRANSAC fits a perspective transform from src to dst,
// tolerating outlier correspondences. Returns the transform and the indices
// of correspondences within threshold pixels of their projection.
//
// Pure Go rather than the OpenCV fit: the RNG is seeded per call, so
// locating the same template in an unchanged capture always lands on the
// same coordinate.
func computeHomographyRANSAC(src, dst []geometry.Point2D, iterations int, threshold float64) (Homography, []int, error) {
	if len(src) != len(dst) {
		return Homography{}, nil, fmt.Errorf("point count mismatch: %d vs %d", len(src), len(dst))
	}
	if len(src) < 4 {
		return Homography{}, nil, fmt.Errorf("need at least 4 points, got %d", len(src))
	}

	n := len(src)
	rng := rand.New(rand.NewSource(1))

	bestInliers := []int{}
	var bestTransform Homography

	for iter := 0; iter < iterations; iter++ {
		indices := rng.Perm(n)[:4]

		sample := make([]geometry.Point2D, 4)
		target := make([]geometry.Point2D, 4)
		for i, idx := range indices {
			sample[i] = src[idx]
			target[i] = dst[idx]
		}

		transform, err := homographyFromPoints(sample, target)
		if err != nil {
			continue
		}

		var inliers []int
		for i := range src {
			projected := transform.Apply(src[i])
			if projected.Distance(dst[i]) < threshold {
				inliers = append(inliers, i)
			}
		}

		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			bestTransform = transform
		}
	}

	if len(bestInliers) < 4 {
		return Homography{}, nil, fmt.Errorf("RANSAC failed to find enough inliers")
	}

	// Recompute using all inliers for a least-squares fit
	inlierSrc := make([]geometry.Point2D, len(bestInliers))
	inlierDst := make([]geometry.Point2D, len(bestInliers))
	for i, idx := range bestInliers {
		inlierSrc[i] = src[idx]
		inlierDst[i] = dst[idx]
	}

	finalTransform, err := homographyLeastSquares(inlierSrc, inlierDst)
	if err != nil {
		return bestTransform, bestInliers, nil
	}
	return finalTransform, bestInliers, nil
}

// homographyFromPoints computes an exact homography from 4 point pairs.
func homographyFromPoints(src, dst []geometry.Point2D) (Homography, error) {
	if len(src) != 4 || len(dst) != 4 {
		return Homography{}, fmt.Errorf("need exactly 4 points")
	}
	return solveHomography(src, dst)
}

// homographyLeastSquares fits a homography to N >= 4 point pairs,
// minimizing the algebraic error.
func homographyLeastSquares(src, dst []geometry.Point2D) (Homography, error) {
	if len(src) < 4 {
		return Homography{}, fmt.Errorf("need at least 4 points, got %d", len(src))
	}
	return solveHomography(src, dst)
}

// solveHomography builds the direct linear system with h33 fixed to 1 and
// solves it with gonum. For 4 pairs the system is exact; for more it is an
// overdetermined least-squares solve.
//
//	x' = (h11 x + h12 y + h13) / (h31 x + h32 y + 1)
//	y' = (h21 x + h22 y + h23) / (h31 x + h32 y + 1)
func solveHomography(src, dst []geometry.Point2D) (Homography, error) {
	n := len(src)
	A := mat.NewDense(2*n, 8, nil)
	B := mat.NewVecDense(2*n, nil)

	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -xp*x)
		A.Set(i*2, 7, -xp*y)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -yp*x)
		A.Set(i*2+1, 7, -yp*y)
		B.SetVec(i*2+1, yp)
	}

	var h mat.VecDense
	if err := h.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("solve homography: %w", err)
	}

	return Homography{m: [3][3]float64{
		{h.AtVec(0), h.AtVec(1), h.AtVec(2)},
		{h.AtVec(3), h.AtVec(4), h.AtVec(5)},
		{h.AtVec(6), h.AtVec(7), 1},
	}}, nil
}
