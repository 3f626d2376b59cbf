package api

import (
	"time"

	"domain-parser/internal/parser"
	"domain-parser/internal/store"
	"domain-parser/internal/suffix"
)

// Lookup operations.
const (
	OperationParse  = "parse"
	OperationSuffix = "suffix"
)

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	URL       string          `json:"url"`
	Options   *parser.Options `json:"options"`
	SuffixSet string          `json:"suffix_set"`
}

// SuffixRequest is the body of POST /api/suffix.
type SuffixRequest struct {
	Input     string          `json:"input"`
	Options   *parser.Options `json:"options"`
	SuffixSet string          `json:"suffix_set"`
}

// BatchRequest is the JSON body of POST /api/batch.
type BatchRequest struct {
	URLs      []string        `json:"urls"`
	Operation string          `json:"operation"`
	Options   *parser.Options `json:"options"`
	SuffixSet string          `json:"suffix_set"`
}

// LookupDTO is the outcome of one lookup, as returned by batch runs and the
// websocket stream.
type LookupDTO struct {
	Operation        string              `json:"operation"`
	Input            string              `json:"input"`
	Result           *parser.Result      `json:"result,omitempty"`
	Suffix           *parser.SuffixMatch `json:"suffix,omitempty"`
	Error            string              `json:"error,omitempty"`
	Status           int                 `json:"status"`
	SuffixSet        string              `json:"suffix_set,omitempty"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
}

// BatchResponse reports a batch run.
type BatchResponse struct {
	BatchID       string      `json:"batch_id"`
	Operation     string      `json:"operation"`
	RowCount      int         `json:"row_count"`
	UniqueInputs  int         `json:"unique_inputs"`
	DuplicateRows int         `json:"duplicate_rows"`
	Succeeded     int         `json:"succeeded"`
	Failed        int         `json:"failed"`
	Items         []LookupDTO `json:"items"`
}

// LookupRecordDTO is a persisted lookup.
type LookupRecordDTO struct {
	ID               uint      `json:"id"`
	Operation        string    `json:"operation"`
	Input            string    `json:"input"`
	Hostname         string    `json:"hostname"`
	Domain           string    `json:"domain"`
	Suffix           string    `json:"suffix"`
	Section          string    `json:"section"`
	SuffixSet        string    `json:"suffix_set,omitempty"`
	BatchID          string    `json:"batch_id,omitempty"`
	Error            string    `json:"error,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// LookupsResponse is the paginated lookup history.
type LookupsResponse struct {
	Items []LookupRecordDTO `json:"items"`
	Total int64             `json:"total"`
}

// SuffixSetRequest is the body of PUT /api/suffix-sets/:name.
type SuffixSetRequest struct {
	Owner       string   `json:"owner"`
	Description string   `json:"description"`
	Suffixes    []string `json:"suffixes"`
}

// SuffixSetDTO is the API representation of a stored suffix set.
type SuffixSetDTO struct {
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	Description string    `json:"description"`
	Suffixes    []string  `json:"suffixes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConfigResponse describes the running service.
type ConfigResponse struct {
	Dataset       suffix.Stats   `json:"dataset"`
	Defaults      parser.Options `json:"defaults"`
	RecordLookups bool           `json:"record_lookups"`
	Metrics       bool           `json:"metrics"`
	SuffixSets    int            `json:"suffix_sets"`
	Lookups       int64          `json:"lookups"`
	LastLookup    *LookupDTO     `json:"last_lookup,omitempty"`
}

// LookupFromModel converts a store.Lookup into its DTO.
func LookupFromModel(l store.Lookup) LookupRecordDTO {
	return LookupRecordDTO{
		ID:               l.ID,
		Operation:        l.Operation,
		Input:            l.Input,
		Hostname:         l.Hostname,
		Domain:           l.Domain,
		Suffix:           l.Suffix,
		Section:          l.Section,
		SuffixSet:        l.SuffixSet,
		BatchID:          l.BatchID,
		Error:            l.Error,
		ProcessingTimeMs: l.ProcessingTimeMs,
		CreatedAt:        l.CreatedAt,
	}
}

// SuffixSetFromModel converts a store.SuffixSet into its DTO.
func SuffixSetFromModel(s store.SuffixSet) SuffixSetDTO {
	suffixes := s.Suffixes()
	if suffixes == nil {
		suffixes = []string{}
	}
	return SuffixSetDTO{
		Name:        s.Name,
		Owner:       s.Owner,
		Description: s.Description,
		Suffixes:    suffixes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
