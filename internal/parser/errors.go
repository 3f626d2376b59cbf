package parser

import (
	"errors"

	"domain-parser/internal/match"
)

var (
	// ErrInvalidURL marks every failure returned by Parse.
	ErrInvalidURL = match.ErrInvalidURL
	// ErrInvalidHostname is returned for hostnames with empty labels, or
	// single-label hostnames passed to Parse.
	ErrInvalidHostname = match.ErrInvalidHostname
	// ErrSuffixNotFound is returned when no suffix matches and unknown suffixes are not allowed.
	ErrSuffixNotFound = match.ErrSuffixNotFound
	// ErrInvalidOptionType is returned when an options document has a value of the wrong type,
	// most notably a non-list extended_suffixes.
	ErrInvalidOptionType = errors.New("invalid option type")
)

// InvalidURLError wraps any failure raised while parsing a URL.
type InvalidURLError struct {
	Input string
	Err   error
}

func (e *InvalidURLError) Error() string {
	if errors.Is(e.Err, ErrInvalidURL) {
		return e.Err.Error()
	}
	return ErrInvalidURL.Error() + ": " + e.Err.Error()
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}
