// Package facematch provides the geometric primitives used by the Geometric
// Matcher (IoU/center-distance computation) and the person-name
// normalization used by the readers and the Classifier.
package facematch

import (
	"math"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

// ComputeIoU calculates Intersection over Union between two rectangles,
// with the convention that a zero-area union yields 0.
func ComputeIoU(a, b model.FaceRect) float64 {
	// Calculate intersection.
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)

	// Calculate union.
	areaA := (a.X2 - a.X1) * (a.Y2 - a.Y1)
	areaB := (b.X2 - b.X1) * (b.Y2 - b.Y1)
	union := areaA + areaB - intersection

	if union <= 0 {
		return 0
	}
	return intersection / union
}

// ComputeCenterDist returns the Euclidean distance between the two
// rectangles' centers, normalized by the image diagonal (sqrt(2)) so the
// result lies in [0, 1].
func ComputeCenterDist(a, b model.FaceRect) float64 {
	acx, acy := (a.X1+a.X2)/2, (a.Y1+a.Y2)/2
	bcx, bcy := (b.X1+b.X2)/2, (b.Y1+b.Y2)/2
	dx, dy := acx-bcx, acy-bcy
	return math.Hypot(dx, dy) / math.Sqrt2
}
