package model

import "errors"

var (
	// Session related errors
	ErrNoSession     = errors.New("no session")
	ErrCorruptUser   = errors.New("corrupt user cookie")
	ErrInvalidToken  = errors.New("invalid token")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
