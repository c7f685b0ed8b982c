// Package cluster partitions a feature matrix into similarity groups with
// k-means and answers nearest-cluster queries.
package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/kamusis/imgrepo-cli/internal/features"
)

// DefaultMaxIterations bounds Lloyd iterations when Options.MaxIterations is zero.
const DefaultMaxIterations = 300

// Options controls a k-means build.
type Options struct {
	// MaxIterations caps assignment/update rounds.
	MaxIterations int `yaml:"max_iterations"`
	// Seed makes centroid initialisation reproducible.
	Seed uint64 `yaml:"seed"`
}

// Index is an immutable k-means partition of one feature matrix.
type Index struct {
	dim        int
	centroids  [][]float64
	labels     []int
	iterations int
	converged  bool
}

// TargetK returns ceil(sqrt(n)), the cluster count used for n images.
func TargetK(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// Build runs k-means over every row of m with K = TargetK(m.Len()).
//
// Centroids are seeded with k-means++ from a PCG source keyed on opts.Seed,
// then refined until no label changes or MaxIterations is reached. Labels
// are finally recomputed against the final centroids so that Label(i) always
// equals Nearest(m.Row(i)).
func Build(m *features.Matrix, opts Options) (*Index, error) {
	n := m.Len()
	if n == 0 {
		return nil, ErrEmptyRepository
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	k := TargetK(n)
	dim := m.Dim()

	rng := rand.New(rand.NewPCG(opts.Seed, uint64(n)))
	centroids := initPlusPlus(m, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	iterations := 0
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		changed := assign(m, centroids, labels)
		iterations++
		if changed == 0 {
			converged = true
			break
		}
		update(m, labels, centroids, sums, counts)
	}
	if !converged {
		assign(m, centroids, labels)
	}

	return &Index{
		dim:        dim,
		centroids:  centroids,
		labels:     labels,
		iterations: iterations,
		converged:  converged,
	}, nil
}

// initPlusPlus picks k starting centroids among the rows, each new one drawn
// with probability proportional to its squared distance from the closest
// centroid chosen so far.
func initPlusPlus(m *features.Matrix, k int, rng *rand.Rand) [][]float64 {
	n := m.Len()
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, toFloat(m.Row(rng.IntN(n))))

	minDist := make([]float64, n)
	for i := 0; i < n; i++ {
		minDist[i] = sqDist(m.Row(i), centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range minDist {
			total += d
		}
		target := rng.Float64() * total
		pick := n - 1
		var cum float64
		for i, d := range minDist {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		c := toFloat(m.Row(pick))
		centroids = append(centroids, c)
		for i := 0; i < n; i++ {
			if d := sqDist(m.Row(i), c); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centroids
}

// assign labels every row with its nearest centroid and returns how many
// labels changed.
func assign(m *features.Matrix, centroids [][]float64, labels []int) int {
	changed := 0
	for i := 0; i < m.Len(); i++ {
		c := nearest(m.Row(i), centroids)
		if labels[i] != c {
			labels[i] = c
			changed++
		}
	}
	return changed
}

// update moves each centroid to the mean of its members. A centroid with no
// members stays where it is.
func update(m *features.Matrix, labels []int, centroids, sums [][]float64, counts []int) {
	for c := range sums {
		counts[c] = 0
		clear(sums[c])
	}
	for i, c := range labels {
		counts[c]++
		s := sums[c]
		for d, x := range m.Row(i) {
			s[d] += float64(x)
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		inv := 1 / float64(counts[c])
		for d := range centroids[c] {
			centroids[c][d] = sums[c][d] * inv
		}
	}
}

func toFloat(v features.Vector) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// K returns the number of clusters.
func (ix *Index) K() int { return len(ix.centroids) }

// Iterations returns how many assignment rounds the build ran.
func (ix *Index) Iterations() int { return ix.iterations }

// Converged reports whether labels stabilised before the iteration cap.
func (ix *Index) Converged() bool { return ix.converged }

// Label returns the cluster of matrix row i.
func (ix *Index) Label(i int) int { return ix.labels[i] }

// Labels returns a copy of every row's cluster, in row order.
func (ix *Index) Labels() []int {
	out := make([]int, len(ix.labels))
	copy(out, ix.labels)
	return out
}

// Centroid returns a copy of centroid c.
func (ix *Index) Centroid(c int) []float64 {
	out := make([]float64, len(ix.centroids[c]))
	copy(out, ix.centroids[c])
	return out
}

// Members returns the matrix rows assigned to cluster c, in row order.
func (ix *Index) Members(c int) []int {
	var out []int
	for i, l := range ix.labels {
		if l == c {
			out = append(out, i)
		}
	}
	return out
}

// Sizes returns the member count of every cluster.
func (ix *Index) Sizes() []int {
	out := make([]int, len(ix.centroids))
	for _, l := range ix.labels {
		out[l]++
	}
	return out
}

// Nearest returns the cluster whose centroid is closest to v in Euclidean
// distance. Ties go to the lowest cluster index.
func (ix *Index) Nearest(v features.Vector) (int, error) {
	if len(v) != ix.dim {
		return -1, ErrVectorLengthMismatch
	}
	return nearest(v, ix.centroids), nil
}
