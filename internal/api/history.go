package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"domain-parser/internal/store"
)

// lookupQuery builds a store query from the host, operation and batch_id
// filters. A host glob treats dots as separators, so "*.example.com" does not
// match "a.b.example.com" but "**.example.com" does.
func lookupQuery(c *gin.Context) (store.LookupQuery, error) {
	q := store.LookupQuery{
		Operation: strings.TrimSpace(c.Query("operation")),
		BatchID:   strings.TrimSpace(c.Query("batch_id")),
	}
	if pattern := strings.ToLower(strings.TrimSpace(c.Query("host"))); pattern != "" {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return q, fmt.Errorf("invalid host pattern %q: %w", pattern, err)
		}
		q.HostMatch = g.Match
	}
	return q, nil
}

func (s *Server) handleListLookups(c *gin.Context) {
	q, err := lookupQuery(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 100
	}
	q.Offset = page * pageSize
	q.Limit = pageSize

	rows, total, err := s.db.ListLookups(q)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]LookupRecordDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, LookupFromModel(row))
	}
	c.JSON(http.StatusOK, LookupsResponse{Items: dtos, Total: total})
}

func (s *Server) handleClearLookups(c *gin.Context) {
	if err := s.db.ClearLookups(); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.Info("lookup history cleared")
	c.Status(http.StatusNoContent)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	q, err := lookupQuery(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	rows, _, err := s.db.ListLookups(q)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=domain-parser-lookups.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"id", "created_at", "operation", "input", "hostname", "domain", "suffix", "section", "suffix_set", "batch_id", "error", "processing_time_ms"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range rows {
		line := []string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			row.Operation,
			row.Input,
			row.Hostname,
			row.Domain,
			row.Suffix,
			row.Section,
			row.SuffixSet,
			row.BatchID,
			row.Error,
			strconv.FormatInt(row.ProcessingTimeMs, 10),
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleListSuffixSets(c *gin.Context) {
	var nameMatch glob.Glob
	if pattern := strings.ToLower(strings.TrimSpace(c.Query("name"))); pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid name pattern %q: %w", pattern, err))
			return
		}
		nameMatch = g
	}

	sets, err := s.db.ListSuffixSets()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]SuffixSetDTO, 0, len(sets))
	for _, set := range sets {
		if nameMatch != nil && !nameMatch.Match(set.Name) {
			continue
		}
		dtos = append(dtos, SuffixSetFromModel(set))
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

func (s *Server) handleGetSuffixSet(c *gin.Context) {
	name := c.Param("name")
	set, err := s.db.GetSuffixSet(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("suffix set %q not found", name))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, SuffixSetFromModel(*set))
}

func (s *Server) handlePutSuffixSet(c *gin.Context) {
	var req SuffixSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	suffixes, err := cleanSuffixes(req.Suffixes)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	set := &store.SuffixSet{
		Name:        c.Param("name"),
		Owner:       strings.TrimSpace(req.Owner),
		Description: strings.TrimSpace(req.Description),
	}
	set.SetSuffixes(suffixes)
	if err := s.db.SaveSuffixSet(set); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	saved, err := s.db.GetSuffixSet(set.Name)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"name":     saved.Name,
		"owner":    saved.Owner,
		"suffixes": len(suffixes),
	}).Info("suffix set saved")
	c.JSON(http.StatusOK, SuffixSetFromModel(*saved))
}

func (s *Server) handleDeleteSuffixSet(c *gin.Context) {
	name := c.Param("name")
	if err := s.db.DeleteSuffixSet(name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("suffix set %q not found", name))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	logrus.WithField("name", name).Info("suffix set deleted")
	c.Status(http.StatusNoContent)
}

// cleanSuffixes lower-cases and dedupes suffixes, dropping a leading dot.
func cleanSuffixes(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		value := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
		if value == "" {
			continue
		}
		if strings.ContainsAny(value, " \t/:?#") || strings.Contains(value, "..") || strings.HasSuffix(value, ".") {
			return nil, fmt.Errorf("invalid suffix %q", raw)
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one suffix is required")
	}
	return out, nil
}
