package continuation

import "errors"

var (
	ErrInvalidStageCount = errors.New("continuation: stage count must be positive")
	ErrInvalidStepSize   = errors.New("continuation: step size h must be positive")
	ErrStateLength       = errors.New("continuation: x has wrong length")
	ErrDecisionLength    = errors.New("continuation: U has wrong length")
)
