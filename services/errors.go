package services

import "errors"

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidSnapshot  = errors.New("invalid tournament snapshot")
	ErrServiceClosed    = errors.New("tournament service is shutting down")
)
