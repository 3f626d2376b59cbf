package match

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-parser/internal/suffix"
)

func testDB() *suffix.Database {
	return suffix.New(
		[]string{"com", "org", "io", "uk", "co.uk", "jp", "kyoto.jp", "ide.kyoto.jp"},
		[]string{"github.io", "blogspot.com", "blogspot.co.uk"},
	)
}

func TestFindSuffix(t *testing.T) {
	db := testDB()

	tests := []struct {
		name         string
		host         string
		extended     []string
		allowPrivate bool
		policy       Policy
		want         Match
		wantErr      error
	}{
		{
			name: "single label tld", host: "example.com", allowPrivate: true,
			want: Match{Name: "com", Length: 1, Parts: []string{"com"}, Section: "icann"},
		},
		{
			name: "two label tld", host: "example.co.uk", allowPrivate: true,
			want: Match{Name: "co.uk", Length: 2, Parts: []string{"co", "uk"}, Section: "icann"},
		},
		{
			name: "longest icann wins", host: "a.b.ide.kyoto.jp", allowPrivate: true,
			want: Match{Name: "ide.kyoto.jp", Length: 3, Parts: []string{"ide", "kyoto", "jp"}, Section: "icann"},
		},
		{
			name: "private suffix", host: "example.github.io", allowPrivate: true,
			want: Match{Name: "github.io", Length: 2, Parts: []string{"github", "io"}, Section: "private"},
		},
		{
			name: "private suffix disabled", host: "example.github.io",
			want: Match{Name: "io", Length: 1, Parts: []string{"io"}, Section: "icann"},
		},
		{
			name: "private longer than icann", host: "x.blogspot.co.uk", allowPrivate: true,
			want: Match{Name: "blogspot.co.uk", Length: 3, Parts: []string{"blogspot", "co", "uk"}, Section: "private"},
		},
		{
			name: "suffix needs a preceding label", host: "co.uk", allowPrivate: true,
			want: Match{Name: "uk", Length: 1, Parts: []string{"uk"}, Section: "icann"},
		},
		{
			name: "bare tld", host: "com", allowPrivate: true,
			wantErr: ErrSuffixNotFound,
		},
		{
			name: "extended suffix", host: "example.custom", extended: []string{"custom"},
			want: Match{Name: "custom", Length: 1, Parts: []string{"custom"}, Section: "extended"},
		},
		{
			name: "missing extension", host: "example.custom",
			wantErr: ErrSuffixNotFound,
		},
		{
			name: "unknown", host: "example.unknown",
			wantErr: ErrSuffixNotFound,
		},
		{
			name: "unknown allowed", host: "a.example.unknown", policy: Policy{AllowUnknown: true},
			want: Match{Name: "unknown", Length: 1, Parts: []string{"unknown"}, Section: SectionUnknown},
		},
		{
			name: "localhost", host: "localhost", allowPrivate: true,
			want: Match{Name: "localhost", Length: 1, Parts: []string{"localhost"}, Section: SectionLocalhost},
		},
		{
			name: "localhost without private", host: "localhost",
			wantErr: ErrSuffixNotFound,
		},
		{
			name: "ip allowed", host: "192.168.1.1", allowPrivate: true, policy: Policy{AllowIP: true},
			want: Match{Parts: []string{}, Section: SectionIP},
		},
		{
			name: "ip rejected", host: "192.168.1.1", allowPrivate: true,
			wantErr: ErrSuffixNotFound,
		},
		{
			name: "unknown applies before ip", host: "10.0.0.1", policy: Policy{AllowUnknown: true, AllowIP: true},
			want: Match{Name: "1", Length: 1, Parts: []string{"1"}, Section: SectionUnknown},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view := db.View(tc.extended, tc.allowPrivate)
			got, err := FindSuffix(strings.Split(tc.host, "."), view, tc.policy)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got.Length, len(got.Parts))
			assert.Equal(t, got.Name, strings.Join(got.Parts, "."))
		})
	}
}

// longestByLength collects every valid candidate and keeps the longest one.
func longestByLength(labels []string, view suffix.View) (Match, bool) {
	var best []string
	for p := len(labels) - 1; p > 0; p-- {
		candidate := labels[p:]
		if _, ok := view.Lookup(strings.Join(candidate, ".")); ok && len(candidate) > len(best) {
			best = candidate
		}
	}
	if best == nil {
		return Match{}, false
	}
	return Match{Name: strings.Join(best, "."), Length: len(best), Parts: best}, true
}

func TestFindSuffixMatchesLongestCandidate(t *testing.T) {
	db := testDB()
	hosts := []string{
		"example.com",
		"www.example.co.uk",
		"co.uk",
		"a.b.c.ide.kyoto.jp",
		"kyoto.jp",
		"x.blogspot.com",
		"x.y.github.io",
		"nothing.here",
		"uk.co.uk",
		"com.com.com",
	}
	for _, allowPrivate := range []bool{true, false} {
		view := db.View([]string{"here"}, allowPrivate)
		for _, host := range hosts {
			labels := strings.Split(host, ".")
			want, found := longestByLength(labels, view)
			got, err := FindSuffix(labels, view, Policy{})
			if !found {
				assert.Error(t, err, host)
				continue
			}
			require.NoError(t, err, host)
			assert.Equal(t, want.Name, got.Name, "%s private=%v", host, allowPrivate)
			assert.Equal(t, want.Length, got.Length)
		}
	}
}

func TestFindSuffixDoesNotAliasLabels(t *testing.T) {
	labels := []string{"example", "co", "uk"}
	got, err := FindSuffix(labels, testDB().View(nil, true), Policy{})
	require.NoError(t, err)
	labels[1] = "changed"
	assert.Equal(t, []string{"co", "uk"}, got.Parts)
}

func TestIsIPv4Literal(t *testing.T) {
	assert.True(t, IsIPv4Literal("192.168.1.1"))
	assert.True(t, IsIPv4Literal("999.999.999.999"))
	assert.False(t, IsIPv4Literal("1.2.3"))
	assert.False(t, IsIPv4Literal("1.2.3.4.5"))
	assert.False(t, IsIPv4Literal("a.b.c.d"))
}

func TestComposeDomain(t *testing.T) {
	tests := []struct {
		name string
		host string
		m    Match
		want string
	}{
		{"simple", "example.com", Match{Name: "com", Length: 1, Parts: []string{"com"}}, "example.com"},
		{"nested", "a.b.c.example.com", Match{Name: "com", Length: 1, Parts: []string{"com"}}, "example.com"},
		{"two label suffix", "www.example.co.uk", Match{Name: "co.uk", Length: 2, Parts: []string{"co", "uk"}}, "example.co.uk"},
		{"whole hostname", "localhost", Match{Name: "localhost", Length: 1, Parts: []string{"localhost"}}, "localhost"},
		{"empty match", "192.168.1.1", Match{Parts: []string{}}, "192.168.1.1"},
		{"mismatched suffix", "example.com", Match{Name: "org", Length: 1, Parts: []string{"org"}}, "example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComposeDomain(strings.Split(tc.host, "."), tc.m))
		})
	}
}
