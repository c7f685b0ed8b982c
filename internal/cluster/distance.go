package cluster

import (
	"math"

	"github.com/kamusis/imgrepo-cli/internal/features"
)

// sqDist returns the squared Euclidean distance between v and c, which must
// have equal length.
func sqDist(v features.Vector, c []float64) float64 {
	var sum float64
	for i, x := range v {
		d := float64(x) - c[i]
		sum += d * d
	}
	return sum
}

// nearest returns the index of the centroid closest to v. The first of
// several equidistant centroids wins.
func nearest(v features.Vector, centroids [][]float64) int {
	best := -1
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(v, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
