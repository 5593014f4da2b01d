package domain

import "errors"

// ErrNotFound is returned by repo and service functions when a trip or booking
// does not exist (or the booking does not belong to the given trip).
// Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule, e.g. a booking
// that ends before it starts or an unknown time zone.
// Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
