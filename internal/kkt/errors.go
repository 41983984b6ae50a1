package kkt

import "errors"

// Domain errors for KKT residual evaluation. These are configuration/usage
// errors caught at construction or at the call boundary — never inside the
// hot Eval loop.
var (
	ErrInvalidDimensions = errors.New("kkt: invalid problem dimensions")
	ErrStageCount        = errors.New("kkt: stage count must be positive")
	ErrStateLength       = errors.New("kkt: x0 has wrong length")
	ErrDecisionLength    = errors.New("kkt: U has wrong length")
	ErrResidualLength    = errors.New("kkt: F has wrong length")
)
