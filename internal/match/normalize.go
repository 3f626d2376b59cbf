package match

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*://`)

// defaultPorts lists the schemes with a tuple origin and the port they elide.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// URL captures the normalized components of a parsed input.
type URL struct {
	Original string
	Protocol string
	Host     string
	Hostname string
	Port     string
	Pathname string
	Search   string
	Hash     string
	Origin   string
	Query    url.Values
	Labels   []string
}

// Normalize parses input as a URL, assuming http:// when no scheme is given,
// and validates that the hostname has no empty labels.
func Normalize(input string) (*URL, error) {
	raw := strings.TrimSpace(input)
	if !schemePattern.MatchString(raw) {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	hostname, err := normalizeHostname(u.Hostname())
	if err != nil {
		return nil, err
	}
	labels := strings.Split(hostname, ".")
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
		}
	}

	scheme := u.Scheme
	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > 65535 {
			return nil, fmt.Errorf("%w: port %q out of range", ErrInvalidURL, port)
		}
		port = strconv.Itoa(n)
	}
	defaultPort, special := defaultPorts[scheme]
	if special && port == defaultPort {
		port = ""
	}

	host := hostname
	if strings.Contains(hostname, ":") {
		host = "[" + hostname + "]"
	}
	if port != "" {
		host += ":" + port
	}

	pathname := u.EscapedPath()
	if pathname == "" && special {
		pathname = "/"
	}

	out := &URL{
		Original: input,
		Protocol: scheme + ":",
		Host:     host,
		Hostname: hostname,
		Port:     port,
		Pathname: pathname,
		Query:    u.Query(),
		Labels:   labels,
		Origin:   "null",
	}
	if u.RawQuery != "" {
		out.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out.Hash = "#" + u.EscapedFragment()
	}
	if special {
		out.Origin = out.Protocol + "//" + host
	}
	return out, nil
}

func normalizeHostname(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil && strings.Contains(host, ":") {
		return ip.String(), nil
	}

	// ASCII-only hosts are lower-cased directly, everything else goes through IDNA.
	if isASCII(host) {
		return strings.ToLower(host), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: idna: %v", ErrInvalidHostname, err)
	}
	return strings.ToLower(ascii), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
