package domain

import "errors"

var (
	ErrOracleFailure         = errors.New("oracle failure")
	ErrConversionExhausted   = errors.New("dsl conversion retries exhausted")
	ErrMalformedOracleOutput = errors.New("malformed oracle output")
	ErrPersistence           = errors.New("persistence failure")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrInvalidBucket         = errors.New("invalid bucket name")
	ErrUnknownRenderer       = errors.New("unknown renderer kind")
	ErrStrictUnknownCommand  = errors.New("program contains unknown commands")
	ErrEmptyProgram          = errors.New("program has no commands")
)
