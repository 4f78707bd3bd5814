// CLAUDE:SUMMARY Public error surface: re-exports the engine sentinels and maps them to HTTP status codes.
package site

import (
	"errors"
	"net/http"

	"github.com/hazyhaar/arbo/site/internal/tree"
)

// Sentinel errors returned by Service operations. Wrap-aware: detect with
// errors.Is.
var (
	// ErrNotFound is returned when a page or component id, or a path,
	// does not resolve.
	ErrNotFound = tree.ErrNotFound

	// ErrInvalidOperation is returned for moves/deletes of the root page.
	ErrInvalidOperation = tree.ErrInvalidOperation

	// ErrCycle is returned when a move would place a page inside its own
	// subtree.
	ErrCycle = tree.ErrCycle

	// ErrSlugConflict is returned when a move would duplicate a sibling
	// slug. Creation never conflicts: slugs are suffixed until unique.
	ErrSlugConflict = tree.ErrSlugConflict

	// ErrInvalidInput is returned for malformed input: bad paths, unknown
	// component types.
	ErrInvalidInput = tree.ErrInvalidInput
)

// ErrStatus maps a Service error to an HTTP status code.
func ErrStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlugConflict), errors.Is(err, ErrCycle), errors.Is(err, ErrInvalidOperation):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
