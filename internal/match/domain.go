package match

import "strings"

// ComposeDomain returns the registrable domain: the label right before the
// matched suffix joined with it. When the suffix covers the whole hostname,
// or the match is empty, the hostname is returned unchanged.
func ComposeDomain(labels []string, m Match) string {
	hostname := strings.Join(labels, ".")
	i := len(labels) - m.Length
	if m.Length == 0 || i <= 0 {
		return hostname
	}
	if strings.Join(labels[i:], ".") != m.Name {
		return hostname
	}
	return labels[i-1] + "." + m.Name
}
