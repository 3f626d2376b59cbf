// Package suffix holds the known public suffixes and the per-call views used
// to match hostnames against them.
package suffix

import "strings"

// Section names the set a suffix entry came from.
type Section string

const (
	SectionICANN    Section = "icann"
	SectionPrivate  Section = "private"
	SectionExtended Section = "extended"
)

// Entry is a single known suffix.
type Entry struct {
	Name    string
	Labels  int
	Section Section
}

// Database is an immutable table of suffixes split into ICANN and private
// sets. It is never written after Load returns and is safe for concurrent reads.
type Database struct {
	icann   map[string]int
	private map[string]int
	skipped int
}

// Stats summarizes the contents of a Database.
type Stats struct {
	ICANN   int `json:"icann"`
	Private int `json:"private"`
	Skipped int `json:"skipped"`
}

// New builds a Database from explicit suffix lists. Mostly useful in tests.
func New(icann, private []string) *Database {
	db := &Database{
		icann:   make(map[string]int, len(icann)),
		private: make(map[string]int, len(private)),
	}
	for _, s := range icann {
		if s = normalizeSuffix(s); s != "" {
			db.icann[s] = labelCount(s)
		}
	}
	for _, s := range private {
		if s = normalizeSuffix(s); s != "" {
			db.private[s] = labelCount(s)
		}
	}
	return db
}

// Stats returns the number of loaded and skipped rules.
func (db *Database) Stats() Stats {
	return Stats{ICANN: len(db.icann), Private: len(db.private), Skipped: db.skipped}
}

// ICANN reports whether name is a baseline ICANN suffix.
func (db *Database) ICANN(name string) (Entry, bool) {
	n, ok := db.icann[name]
	return Entry{Name: name, Labels: n, Section: SectionICANN}, ok
}

// Private reports whether name is a baseline private suffix.
func (db *Database) Private(name string) (Entry, bool) {
	n, ok := db.private[name]
	return Entry{Name: name, Labels: n, Section: SectionPrivate}, ok
}

// View returns a per-call overlay of the database. Extended suffixes are
// merged over the ICANN set and win over baseline entries with the same name;
// private suffixes are visible only when allowPrivate is set. The baseline
// maps are shared, only the extension is allocated.
func (db *Database) View(extended []string, allowPrivate bool) View {
	v := View{db: db, allowPrivate: allowPrivate}
	for _, s := range extended {
		s = normalizeSuffix(s)
		if s == "" {
			continue
		}
		if v.extended == nil {
			v.extended = make(map[string]int, len(extended))
		}
		v.extended[s] = labelCount(s)
	}
	return v
}

// View is the logical suffix set used for one lookup.
type View struct {
	db           *Database
	extended     map[string]int
	allowPrivate bool
}

// AllowPrivate reports whether private suffixes are visible through the view.
func (v View) AllowPrivate() bool {
	return v.allowPrivate
}

// Lookup finds name in the view. Extended entries shadow ICANN entries, which
// in turn are checked before private ones.
func (v View) Lookup(name string) (Entry, bool) {
	if n, ok := v.extended[name]; ok {
		return Entry{Name: name, Labels: n, Section: SectionExtended}, true
	}
	if v.db == nil {
		return Entry{}, false
	}
	if e, ok := v.db.ICANN(name); ok {
		return e, true
	}
	if v.allowPrivate {
		if e, ok := v.db.Private(name); ok {
			return e, true
		}
	}
	return Entry{}, false
}

func normalizeSuffix(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func labelCount(s string) int {
	return strings.Count(s, ".") + 1
}
