package match

import "errors"

var (
	// ErrInvalidURL is returned when the input cannot be parsed as a URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidHostname is returned for hostnames with empty labels.
	ErrInvalidHostname = errors.New("invalid domain name")
	// ErrSuffixNotFound is returned when no known suffix ends the hostname.
	ErrSuffixNotFound = errors.New("could not detect suffix, set allow_unknown to accept unknown suffixes")
)
