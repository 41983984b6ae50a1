package gmres

import "errors"

var (
	ErrInvalidDim  = errors.New("gmres: dim must be positive")
	ErrInvalidKmax = errors.New("gmres: kmax must be positive")
	ErrRHSLength   = errors.New("gmres: right-hand side has wrong length")
)
