package service

import "errors"

var (
	// ErrValidation marks input the caller must fix.
	ErrValidation = errors.New("validation failed")
	// ErrExamExpired is returned for a composed exam past its lifetime.
	ErrExamExpired = errors.New("exam expired")
)
