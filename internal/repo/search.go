package repo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kamusis/imgrepo-cli/internal/features"
	"github.com/kamusis/imgrepo-cli/internal/metrics"
	"golang.org/x/text/unicode/norm"
)

// TextSearch selects images whose base file name contains query, case
// sensitive. Names and query are compared in NFC so that decomposed file
// names (as written by some filesystems) still match.
//
// With matches, a child view over them is built and returned. Without, the
// receiver is returned together with ErrNoMatch. An empty query matches every
// image.
func (v *View) TextSearch(query string) (*View, error) {
	q := norm.NFC.String(query)
	var hits []string
	for _, p := range v.images {
		if strings.Contains(norm.NFC.String(filepath.Base(p)), q) {
			hits = append(hits, p)
		}
	}
	if len(hits) == 0 {
		metrics.Searches.WithLabelValues("text", "no_match").Inc()
		return v, ErrNoMatch
	}
	metrics.Searches.WithLabelValues("text", "match").Inc()
	return v.repo.build(hits, v.id, fmt.Sprintf("text %q", query)), nil
}

// ImageSearch normalizes the image at queryPath, finds the nearest cluster
// of this view and returns a child view over that cluster's members.
//
// The receiver is returned unchanged, with a non-nil error, when the query
// image is invalid (*features.InvalidImageError), when the view has no
// images (ErrEmptyRepository) or when the nearest cluster has no members
// (ErrNoMatch).
func (v *View) ImageSearch(queryPath string) (*View, error) {
	qv, err := features.Normalize(queryPath, v.repo.opts.Canvas)
	if err != nil {
		metrics.Searches.WithLabelValues("image", "invalid_query").Inc()
		return v, err
	}
	if v.clusters == nil {
		metrics.Searches.WithLabelValues("image", "empty_view").Inc()
		return v, ErrEmptyRepository
	}
	c, err := v.clusters.Nearest(qv)
	if err != nil {
		return v, fmt.Errorf("cannot locate nearest cluster: %w", err)
	}

	var hits []string
	for _, i := range v.clusters.Members(c) {
		hits = append(hits, v.matrix.ID(i))
	}
	if len(hits) == 0 {
		metrics.Searches.WithLabelValues("image", "no_match").Inc()
		return v, ErrNoMatch
	}
	metrics.Searches.WithLabelValues("image", "match").Inc()
	return v.repo.build(hits, v.id, fmt.Sprintf("image %s", queryPath)), nil
}
