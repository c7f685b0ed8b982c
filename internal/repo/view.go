package repo

import (
	"github.com/kamusis/imgrepo-cli/internal/cluster"
	"github.com/kamusis/imgrepo-cli/internal/features"
)

// Record is one indexed image as captured when its view was built.
type Record struct {
	Path        string
	Vector      features.Vector
	Fingerprint uint64
}

// Skip is a file that was left out of a view.
type Skip struct {
	Path string
	Err  error
}

// View is an immutable repository snapshot over a subset of images, with its
// own feature matrix and clustering.
type View struct {
	repo     *Repository
	id       ViewID
	parent   ViewID
	depth    int
	origin   string
	images   []string
	matrix   *features.Matrix
	clusters *cluster.Index
	records  []Record
	skipped  []Skip
}

func (v *View) ID() ViewID { return v.id }

// Origin describes the operation that produced the view.
func (v *View) Origin() string { return v.origin }

// Depth is the number of edges between the view and its root.
func (v *View) Depth() int { return v.depth }

func (v *View) IsRoot() bool { return v.parent == NoParent }

// Parent returns the view this one was searched from.
func (v *View) Parent() (*View, bool) {
	return v.repo.View(v.parent)
}

// Home returns the root of the tree the view belongs to.
func (v *View) Home() *View {
	cur := v
	for {
		p, ok := cur.Parent()
		if !ok {
			return cur
		}
		cur = p
	}
}

// Images returns a copy of the indexed image paths in insertion order.
func (v *View) Images() []string {
	out := make([]string, len(v.images))
	copy(out, v.images)
	return out
}

func (v *View) Len() int { return len(v.images) }

// Empty reports whether the view has no images. Empty views can be navigated
// but not image-searched.
func (v *View) Empty() bool { return len(v.images) == 0 }

// Clusters returns the view's cluster index, or nil when the view is empty.
func (v *View) Clusters() *cluster.Index { return v.clusters }

// Matrix returns the view's feature matrix. The caller must not modify rows.
func (v *View) Matrix() *features.Matrix { return v.matrix }

// Records returns a copy of the per-image records.
func (v *View) Records() []Record {
	out := make([]Record, len(v.records))
	copy(out, v.records)
	return out
}

// Record returns the record captured for path.
func (v *View) Record(path string) (Record, bool) {
	for _, r := range v.records {
		if r.Path == path {
			return r, true
		}
	}
	return Record{}, false
}

// Skipped returns the files left out when the view was built.
func (v *View) Skipped() []Skip {
	out := make([]Skip, len(v.skipped))
	copy(out, v.skipped)
	return out
}

// ClusterOf returns the cluster label of path.
func (v *View) ClusterOf(path string) (int, bool) {
	if v.clusters == nil {
		return 0, false
	}
	for i, p := range v.images {
		if p == path {
			return v.clusters.Label(i), true
		}
	}
	return 0, false
}
