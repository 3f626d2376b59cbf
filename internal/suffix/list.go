package suffix

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
)

//go:embed public_suffix_list.dat
var listData []byte

var (
	defaultOnce sync.Once
	defaultDB   *Database
)

// Default returns the process-wide database built from the embedded list.
// The list ships with the binary, so a parse failure is a build defect and panics.
func Default() *Database {
	defaultOnce.Do(func() {
		db, err := Load(bytes.NewReader(listData))
		if err != nil {
			panic(fmt.Errorf("load embedded suffix list: %w", err))
		}
		stats := db.Stats()
		logrus.WithFields(logrus.Fields{
			"icann":   stats.ICANN,
			"private": stats.Private,
			"skipped": stats.Skipped,
		}).Debug("suffix list loaded")
		defaultDB = db
	})
	return defaultDB
}

// Load parses a list in the publicsuffix.org format. Rules outside the ICANN
// and PRIVATE sections are ignored. Wildcard and exception rules are counted
// as skipped because lookups are exact-key only.
func Load(r io.Reader) (*Database, error) {
	db := &Database{
		icann:   make(map[string]int),
		private: make(map[string]int),
	}

	var section map[string]int
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "// ===BEGIN ICANN DOMAINS==="):
			section = db.icann
			continue
		case strings.HasPrefix(line, "// ===BEGIN PRIVATE DOMAINS==="):
			section = db.private
			continue
		case strings.HasPrefix(line, "// ===END "):
			section = nil
			continue
		case line == "" || strings.HasPrefix(line, "//") || section == nil:
			continue
		}

		// Rules end at the first whitespace.
		if idx := strings.IndexAny(line, " \t"); idx >= 0 {
			line = line[:idx]
		}
		if strings.HasPrefix(line, "!") || strings.Contains(line, "*") {
			db.skipped++
			continue
		}

		name, err := toASCII(line)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"line": lineNo,
				"rule": line,
			}).Debug("keeping suffix rule in its original form")
			name = strings.ToLower(line)
		}
		section[name] = strings.Count(name, ".") + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read suffix list: %w", err)
	}
	if len(db.icann) == 0 {
		return nil, fmt.Errorf("read suffix list: no ICANN rules found")
	}
	return db, nil
}

func toASCII(rule string) (string, error) {
	for i := 0; i < len(rule); i++ {
		if rule[i] >= 0x80 {
			return idna.Lookup.ToASCII(rule)
		}
	}
	return strings.ToLower(rule), nil
}
