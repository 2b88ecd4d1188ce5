package metafile

import (
	"errors"
	"fmt"

	coreerrors "radar/internal/core/errors"
)

var ErrInvalidGraph = errors.New("invalid graph")

func invalid(msg string) *coreerrors.DomainError {
	return &coreerrors.DomainError{
		Code:    coreerrors.CodeValidationError,
		Message: msg,
		Err:     ErrInvalidGraph,
	}
}

// Validate checks the structural invariants the analysis relies on. It stops
// at the first violation, visiting outputs in key order so the reported
// problem is stable.
func (g *Graph) Validate() error {
	if g == nil {
		return invalid("graph is nil")
	}
	for _, path := range g.InputPaths() {
		if path == "" {
			return invalid("input with empty path")
		}
		if g.Inputs[path] == nil {
			return invalid("input has no record").WithContext(coreerrors.CtxPath, path)
		}
	}
	for _, path := range g.OutputPaths() {
		if path == "" {
			return invalid("output with empty path")
		}
		out := g.Outputs[path]
		if out == nil {
			return invalid("output has no record").WithContext(coreerrors.CtxOutput, path)
		}
		if out.EntryPoint == "" {
			continue
		}
		if _, ok := g.Inputs[out.EntryPoint]; !ok {
			return invalid(fmt.Sprintf("entry point %q is not a known input", out.EntryPoint)).
				WithContext(coreerrors.CtxOutput, path)
		}
	}
	return nil
}
