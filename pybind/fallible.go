package pybind

import (
	"regexp"

	"github.com/malkia/clif/decl"
)

// fallibleType matches the rendered exact type of a status or
// status-or-value result. It is a textual heuristic; keep every use
// behind isFallible.
var fallibleType = regexp.MustCompile(`^(?:::absl::Status|::absl::StatusOr<\S+>)`)

// isFallible reports whether p carries a success-or-error wrapper that
// needs the status adapter.
func isFallible(p decl.Param) bool {
	return fallibleType.MatchString(p.ExactType)
}
