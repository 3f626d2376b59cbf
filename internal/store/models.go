package store

import (
	"encoding/json"
	"strings"
	"time"
)

// SuffixSet is a named list of organization-specific suffixes that can be
// applied to lookups as extended suffixes.
type SuffixSet struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:128;uniqueIndex"`
	Owner        string `gorm:"size:128;index"`
	Description  string `gorm:"size:256"`
	SuffixesJSON string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetSuffixes persists the suffix list as JSON.
func (s *SuffixSet) SetSuffixes(suffixes []string) {
	if suffixes == nil {
		s.SuffixesJSON = "[]"
		return
	}
	payload, _ := json.Marshal(suffixes)
	s.SuffixesJSON = string(payload)
}

// Suffixes returns the decoded suffix list.
func (s *SuffixSet) Suffixes() []string {
	if strings.TrimSpace(s.SuffixesJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.SuffixesJSON), &out); err != nil {
		return nil
	}
	return out
}

// Lookup records one parse or suffix request and its outcome.
type Lookup struct {
	ID               uint   `gorm:"primaryKey"`
	Operation        string `gorm:"size:16;index"`
	Input            string `gorm:"size:2048"`
	Hostname         string `gorm:"size:255;index"`
	Domain           string `gorm:"size:255;index"`
	Suffix           string `gorm:"size:255;index"`
	Section          string `gorm:"size:16"`
	SuffixSet        string `gorm:"size:128"`
	BatchID          string `gorm:"size:36;index"`
	Error            string `gorm:"size:512"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

// Failed reports whether the lookup ended with an error.
func (l *Lookup) Failed() bool {
	return l.Error != ""
}
