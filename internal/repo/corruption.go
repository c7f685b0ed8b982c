package repo

import (
	"github.com/kamusis/imgrepo-cli/internal/features"
	"github.com/kamusis/imgrepo-cli/internal/metrics"
)

// Corruption is an indexed image whose file no longer matches the
// fingerprint recorded when the view was built. Err is set when the file can
// no longer be read or decoded at all.
type Corruption struct {
	Path    string
	Stored  uint64
	Current uint64
	Err     error
}

// CheckForCorruption re-normalizes every indexed file and reports those whose
// fingerprint differs from the one captured at build time. The view and its
// stored fingerprints are left untouched, so a changed file keeps being
// reported until a new view is built from it.
func (v *View) CheckForCorruption() []Corruption {
	canvas := v.repo.opts.Canvas
	metrics.CorruptionChecks.Inc()

	var out []Corruption
	for _, rec := range v.records {
		cur, err := features.Normalize(rec.Path, canvas)
		if err != nil {
			v.repo.log.WithError(err).WithField("path", rec.Path).Warn("Indexed image can no longer be read")
			out = append(out, Corruption{Path: rec.Path, Stored: rec.Fingerprint, Err: err})
			continue
		}
		if fp := features.Fingerprint(cur, canvas.Width); fp != rec.Fingerprint {
			out = append(out, Corruption{Path: rec.Path, Stored: rec.Fingerprint, Current: fp})
		}
	}
	metrics.CorruptedImages.Add(float64(len(out)))
	return out
}

// CorruptedPaths returns the paths of cs in order.
func CorruptedPaths(cs []Corruption) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Path)
	}
	return out
}
