package match

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want URL
	}{
		{
			name: "bare hostname gets http",
			raw:  "example.com",
			want: URL{Protocol: "http:", Host: "example.com", Hostname: "example.com", Pathname: "/", Origin: "http://example.com"},
		},
		{
			name: "upper case",
			raw:  "HTTP://EXAMPLE.COM",
			want: URL{Protocol: "http:", Host: "example.com", Hostname: "example.com", Pathname: "/", Origin: "http://example.com"},
		},
		{
			name: "default https port elided",
			raw:  "https://example.com:443/a",
			want: URL{Protocol: "https:", Host: "example.com", Hostname: "example.com", Pathname: "/a", Origin: "https://example.com"},
		},
		{
			name: "custom port kept",
			raw:  "http://example.com:8080/",
			want: URL{Protocol: "http:", Host: "example.com:8080", Hostname: "example.com", Port: "8080", Pathname: "/", Origin: "http://example.com:8080"},
		},
		{
			name: "query and fragment",
			raw:  "https://example.com/p?a=1&b=2#top",
			want: URL{Protocol: "https:", Host: "example.com", Hostname: "example.com", Pathname: "/p", Search: "?a=1&b=2", Hash: "#top", Origin: "https://example.com"},
		},
		{
			name: "path with spaces is escaped",
			raw:  "https://example.com/path with spaces",
			want: URL{Protocol: "https:", Host: "example.com", Hostname: "example.com", Pathname: "/path%20with%20spaces", Origin: "https://example.com"},
		},
		{
			name: "double slash path",
			raw:  "https://example.com//double-slash",
			want: URL{Protocol: "https:", Host: "example.com", Hostname: "example.com", Pathname: "//double-slash", Origin: "https://example.com"},
		},
		{
			name: "non special scheme has null origin",
			raw:  "ssh://example.com",
			want: URL{Protocol: "ssh:", Host: "example.com", Hostname: "example.com", Origin: "null"},
		},
		{
			name: "idn host",
			raw:  "https://ПрИмер.Рф/",
			want: URL{Protocol: "https:", Host: "xn--e1afmkfd.xn--p1ai", Hostname: "xn--e1afmkfd.xn--p1ai", Pathname: "/", Origin: "https://xn--e1afmkfd.xn--p1ai"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.raw, got.Original)
			assert.Equal(t, tc.want.Protocol, got.Protocol)
			assert.Equal(t, tc.want.Host, got.Host)
			assert.Equal(t, tc.want.Hostname, got.Hostname)
			assert.Equal(t, tc.want.Port, got.Port)
			assert.Equal(t, tc.want.Pathname, got.Pathname)
			assert.Equal(t, tc.want.Search, got.Search)
			assert.Equal(t, tc.want.Hash, got.Hash)
			assert.Equal(t, tc.want.Origin, got.Origin)
		})
	}
}

func TestNormalizeLabels(t *testing.T) {
	got, err := Normalize("https://a.b.Example.co.uk/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "example", "co", "uk"}, got.Labels)
}

func TestNormalizeInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrInvalidHostname},
		{"leading dot", ".example.com", ErrInvalidHostname},
		{"consecutive dots", "example..com", ErrInvalidHostname},
		{"trailing dot", "com.", ErrInvalidHostname},
		{"scheme without host", "ftp://", ErrInvalidHostname},
		{"only a dot", "https://.", ErrInvalidHostname},
		{"space in host", "http://exa mple.com", ErrInvalidURL},
		{"port out of range", "http://example.com:70000", ErrInvalidURL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}
