package match

import (
	"fmt"
	"regexp"
	"strings"

	"domain-parser/internal/suffix"
)

// Sections reported in a Match besides the database sections.
const (
	SectionUnknown   = "unknown"
	SectionLocalhost = "localhost"
	SectionIP        = "ip"
)

var ipv4Literal = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// Match is the suffix detected for a hostname.
type Match struct {
	Name    string   `json:"name"`
	Length  int      `json:"length"`
	Parts   []string `json:"parts"`
	Section string   `json:"section,omitempty"`
}

// Policy controls what FindSuffix does when no known suffix matches.
type Policy struct {
	AllowUnknown bool // fall back to the last label
	AllowIP      bool // dotted-quad hosts yield an empty match
}

// FindSuffix returns the longest suffix in view that ends labels and has at
// least one label in front of it.
//
// Candidates are tried from the longest (boundary 1) to the shortest, so the
// first hit is the longest valid one. A boundary of 0 is never tried because
// a suffix must leave a registrable label before it.
func FindSuffix(labels []string, view suffix.View, policy Policy) (Match, error) {
	if len(labels) == 1 && labels[0] == "localhost" && view.AllowPrivate() {
		return newMatch(labels, SectionLocalhost), nil
	}

	hostname := strings.Join(labels, ".")
	offset := 0
	for p := 1; p < len(labels); p++ {
		offset += len(labels[p-1]) + 1
		if entry, ok := view.Lookup(hostname[offset:]); ok {
			return newMatch(labels[p:], string(entry.Section)), nil
		}
	}

	if policy.AllowUnknown && len(labels) > 0 {
		return newMatch(labels[len(labels)-1:], SectionUnknown), nil
	}
	if policy.AllowIP && IsIPv4Literal(hostname) {
		return Match{Parts: []string{}, Section: SectionIP}, nil
	}
	return Match{}, fmt.Errorf("%w: %q", ErrSuffixNotFound, hostname)
}

// IsIPv4Literal reports whether host looks like a dotted-quad address.
// Octet ranges are not checked.
func IsIPv4Literal(host string) bool {
	return ipv4Literal.MatchString(host)
}

func newMatch(parts []string, section string) Match {
	p := make([]string, len(parts))
	copy(p, parts)
	return Match{
		Name:    strings.Join(p, "."),
		Length:  len(p),
		Parts:   p,
		Section: section,
	}
}
