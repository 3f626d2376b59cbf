// Package parser splits URLs and hostnames into their components and finds
// the registrable domain using the public suffix database.
package parser

import (
	"fmt"

	"domain-parser/internal/match"
	"domain-parser/internal/suffix"
)

// SuffixMatch is the suffix detected for a hostname.
type SuffixMatch = match.Match

// URLData holds the URL fields of a parse result.
type URLData struct {
	Domain   string            `json:"domain"`
	Origin   string            `json:"origin"`
	Protocol string            `json:"protocol"`
	Host     string            `json:"host"`
	Hostname string            `json:"hostname"`
	Port     string            `json:"port"`
	Pathname string            `json:"pathname"`
	Search   string            `json:"search"`
	Hash     string            `json:"hash"`
	Query    map[string]string `json:"query"`
}

// Result is the output of Parse.
type Result struct {
	TLD SuffixMatch `json:"tld"`
	URL URLData     `json:"url"`
}

// Parser matches hostnames against a suffix database. It holds no mutable
// state and can be shared between goroutines.
type Parser struct {
	db *suffix.Database
}

// New returns a Parser backed by db.
func New(db *suffix.Database) *Parser {
	return &Parser{db: db}
}

// Default returns a Parser backed by the embedded suffix list.
func Default() *Parser {
	return New(suffix.Default())
}

// Database exposes the suffix database used by the parser.
func (p *Parser) Database() *suffix.Database {
	return p.db
}

// Parse parses a URL using the embedded suffix list.
func Parse(input string, opts *Options) (*Result, error) {
	return Default().Parse(input, opts)
}

// ParseSuffix finds the suffix of a URL or hostname using the embedded suffix list.
func ParseSuffix(input string, opts *Options) (SuffixMatch, error) {
	return Default().ParseSuffix(input, opts)
}

// Parse splits input into URL fields, detects its suffix and derives the
// registrable domain. Every failure is returned as *InvalidURLError.
func (p *Parser) Parse(input string, opts *Options) (*Result, error) {
	o := resolve(opts)

	u, err := match.Normalize(input)
	if err != nil {
		return nil, &InvalidURLError{Input: input, Err: err}
	}
	if len(u.Labels) < 2 && u.Hostname != "localhost" {
		return nil, &InvalidURLError{
			Input: input,
			Err:   fmt.Errorf("%w: %q is not a valid domain", ErrInvalidHostname, u.Hostname),
		}
	}

	m, err := p.find(u.Labels, o)
	if err != nil {
		return nil, &InvalidURLError{Input: input, Err: err}
	}
	return assemble(u, m), nil
}

// ParseSuffix accepts a URL or a bare hostname and returns its suffix.
// Dotted-quad hosts produce an empty match when AllowIP is set.
func (p *Parser) ParseSuffix(input string, opts *Options) (SuffixMatch, error) {
	o := resolve(opts)

	u, err := match.Normalize(input)
	if err != nil {
		return SuffixMatch{}, err
	}
	return p.find(u.Labels, o)
}

func (p *Parser) find(labels []string, o Options) (SuffixMatch, error) {
	view := p.db.View(o.ExtendedSuffixes, o.AllowPrivate)
	return match.FindSuffix(labels, view, match.Policy{
		AllowUnknown: o.AllowUnknown,
		AllowIP:      o.AllowIP,
	})
}

func assemble(u *match.URL, m SuffixMatch) *Result {
	query := make(map[string]string, len(u.Query))
	for key, values := range u.Query {
		if len(values) > 0 {
			query[key] = values[len(values)-1]
		}
	}

	data := URLData{
		Domain:   match.ComposeDomain(u.Labels, m),
		Origin:   u.Origin,
		Protocol: u.Protocol,
		Host:     u.Host,
		Hostname: u.Hostname,
		Port:     u.Port,
		Pathname: u.Pathname,
		Search:   u.Search,
		Hash:     u.Hash,
		Query:    query,
	}
	// Schemes without a tuple origin report "null".
	if data.Origin == "null" {
		data.Origin = data.Protocol + "//" + data.Hostname
	}
	return &Result{TLD: m, URL: data}
}
