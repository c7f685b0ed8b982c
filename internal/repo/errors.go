package repo

import (
	"errors"

	"github.com/kamusis/imgrepo-cli/internal/cluster"
	"github.com/kamusis/imgrepo-cli/internal/features"
)

// ErrNoMatch is returned with the unchanged current view when a search finds
// nothing. It is informational, not a failure.
var ErrNoMatch = errors.New("no search results found")

// ErrEmptyRepository is returned by image search on a view without images.
var ErrEmptyRepository = cluster.ErrEmptyRepository

// skipReason maps a build failure to a short metrics label.
func skipReason(err error) string {
	switch {
	case errors.Is(err, features.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, features.ErrUnreadable):
		return "unreadable"
	case errors.Is(err, features.ErrUndecodable):
		return "undecodable"
	case errors.Is(err, features.ErrMalformedImage):
		return "malformed"
	case errors.Is(err, features.ErrDuplicateID):
		return "duplicate"
	default:
		return "other"
	}
}
