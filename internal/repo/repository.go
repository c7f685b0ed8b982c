// Package repo builds repository views over image files and links them into
// a navigation tree.
//
// A Repository is an arena that owns every view built in a session. Each
// View refers to its parent by ViewID, so "return" and "return home" are
// index walks rather than pointer cycles. Views are immutable once built and
// the arena only ever grows, so a parent is never changed by its children.
//
// A Repository is not safe for concurrent use.
package repo

import (
	"fmt"
	"time"

	"github.com/kamusis/imgrepo-cli/internal/cluster"
	"github.com/kamusis/imgrepo-cli/internal/features"
	"github.com/kamusis/imgrepo-cli/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ViewID indexes a view inside its Repository.
type ViewID int

// NoParent is the parent of a root view.
const NoParent ViewID = -1

// Options configures how views are built.
type Options struct {
	Canvas  features.Canvas
	Cluster cluster.Options
	// Workers bounds concurrent image decoding during a build. Zero or one
	// decodes sequentially.
	Workers int
	Logger  logrus.FieldLogger
}

// Repository owns the views of one browsing session.
type Repository struct {
	opts  Options
	log   logrus.FieldLogger
	views []*View
}

// New validates opts and returns an empty repository.
func New(opts Options) (*Repository, error) {
	if err := opts.Canvas.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d", opts.Workers)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Repository{opts: opts, log: log}, nil
}

// Open builds a root view over paths. Files that cannot be normalized are
// skipped and reported on the view; Open itself never fails.
func (r *Repository) Open(paths []string) *View {
	return r.build(paths, NoParent, "root")
}

// View returns the view with the given id.
func (r *Repository) View(id ViewID) (*View, bool) {
	if id < 0 || int(id) >= len(r.views) {
		return nil, false
	}
	return r.views[id], true
}

// Len returns how many views have been built.
func (r *Repository) Len() int { return len(r.views) }

// Canvas returns the canonical canvas shared by every view.
func (r *Repository) Canvas() features.Canvas { return r.opts.Canvas }

type featurized struct {
	vec features.Vector
	err error
}

func (r *Repository) featurize(paths []string) []featurized {
	out := make([]featurized, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(max(r.opts.Workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			v, err := features.Normalize(p, r.opts.Canvas)
			out[i] = featurized{vec: v, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// build constructs a view over paths and appends it to the arena.
func (r *Repository) build(paths []string, parent ViewID, origin string) *View {
	start := time.Now()
	canvas := r.opts.Canvas

	v := &View{
		repo:   r,
		id:     ViewID(len(r.views)),
		parent: parent,
		origin: origin,
		matrix: features.NewMatrix(canvas.Len()),
	}
	if p, ok := r.View(parent); ok {
		v.depth = p.depth + 1
	}

	for i, res := range r.featurize(paths) {
		path := paths[i]
		err := res.err
		if err == nil {
			err = v.matrix.Append(path, res.vec)
		}
		if err != nil {
			r.log.WithError(err).WithField("path", path).Warn("Bad image file, not including in repository")
			metrics.ImagesSkipped.WithLabelValues(skipReason(err)).Inc()
			v.skipped = append(v.skipped, Skip{Path: path, Err: err})
			continue
		}
		v.images = append(v.images, path)
		v.records = append(v.records, Record{
			Path:        path,
			Vector:      res.vec,
			Fingerprint: features.Fingerprint(res.vec, canvas.Width),
		})
	}

	if v.matrix.Len() > 0 {
		ix, err := cluster.Build(v.matrix, r.opts.Cluster)
		if err != nil {
			r.log.WithError(err).WithField("view", v.id).Error("Clustering failed, image search disabled for this view")
		} else {
			v.clusters = ix
			metrics.KMeansIterations.Observe(float64(ix.Iterations()))
		}
	}

	r.views = append(r.views, v)

	elapsed := time.Since(start)
	metrics.ViewsBuilt.Inc()
	metrics.ImagesIndexed.Add(float64(len(v.images)))
	metrics.BuildDuration.Observe(elapsed.Seconds())

	fields := logrus.Fields{
		"view":    v.id,
		"parent":  parent,
		"origin":  origin,
		"images":  len(v.images),
		"skipped": len(v.skipped),
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}
	if v.clusters != nil {
		fields["clusters"] = v.clusters.K()
		fields["iterations"] = v.clusters.Iterations()
	}
	r.log.WithFields(fields).Debug("View built")
	return v
}
