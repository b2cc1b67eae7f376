package domain

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrSeatAlreadyAssigned = errors.New("seat already assigned")
	ErrInsufficientQuota   = errors.New("not enough passes left")
	ErrNoActiveMembership  = errors.New("no active membership")
	ErrMovieCapReached     = errors.New("movie limit reached for this pass")
	ErrInvalidCredential   = errors.New("invalid credential")
)
