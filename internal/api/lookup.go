package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"domain-parser/internal/match"
	"domain-parser/internal/metrics"
	"domain-parser/internal/parser"
	"domain-parser/internal/store"
	"domain-parser/internal/util"
)

var (
	errUnknownOperation = errors.New("unknown operation")
	errUnknownSuffixSet = errors.New("unknown suffix set")
)

type lookupRequest struct {
	Operation string
	Input     string
	Options   *parser.Options
	SuffixSet string
	BatchID   string
}

// lookup runs one parse or suffix request, records it and reports the outcome.
func (s *Server) lookup(req lookupRequest) LookupDTO {
	timer := util.StartTimer()
	dto := LookupDTO{
		Operation: req.Operation,
		Input:     req.Input,
		SuffixSet: strings.TrimSpace(req.SuffixSet),
	}

	var (
		result *parser.Result
		found  *parser.SuffixMatch
	)
	opts, err := s.resolveOptions(req.Options, dto.SuffixSet)
	if err == nil {
		switch req.Operation {
		case OperationParse:
			result, err = s.parser.Parse(req.Input, &opts)
		case OperationSuffix:
			var m parser.SuffixMatch
			if m, err = s.parser.ParseSuffix(req.Input, &opts); err == nil {
				found = &m
			}
		default:
			err = fmt.Errorf("%w %q, must be %s or %s", errUnknownOperation, req.Operation, OperationParse, OperationSuffix)
		}
	}

	dto.Result = result
	dto.Suffix = found
	dto.Status = http.StatusOK
	if err != nil {
		dto.Error = err.Error()
		dto.Status = statusFor(err)
	}
	dto.ProcessingTimeMs = timer.ElapsedMs()

	s.record(req, dto, err, timer)
	return dto
}

// resolveOptions returns the configured defaults when the request has no
// options, and merges the named suffix set into the extended suffixes.
func (s *Server) resolveOptions(opts *parser.Options, setName string) (parser.Options, error) {
	resolved := s.defaults
	if opts != nil {
		resolved = *opts
	}
	if setName == "" {
		return resolved, nil
	}
	set, err := s.db.GetSuffixSet(setName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return parser.Options{}, fmt.Errorf("%w %q", errUnknownSuffixSet, setName)
		}
		return parser.Options{}, fmt.Errorf("load suffix set %q: %w", setName, err)
	}
	return resolved.WithExtended(set.Suffixes()...), nil
}

func (s *Server) record(req lookupRequest, dto LookupDTO, err error, timer util.Timer) {
	section := ""
	if dto.Result != nil {
		section = dto.Result.TLD.Section
	} else if dto.Suffix != nil {
		section = dto.Suffix.Section
	}
	if s.metricsEnabled {
		metrics.ObserveLookup(req.Operation, outcomeFor(err), section, timer.ElapsedSeconds())
	}

	if s.recordLookups {
		row := &store.Lookup{
			Operation:        req.Operation,
			Input:            req.Input,
			Section:          section,
			SuffixSet:        dto.SuffixSet,
			BatchID:          req.BatchID,
			Error:            dto.Error,
			ProcessingTimeMs: dto.ProcessingTimeMs,
		}
		switch {
		case dto.Result != nil:
			row.Hostname = dto.Result.URL.Hostname
			row.Domain = dto.Result.URL.Domain
			row.Suffix = dto.Result.TLD.Name
		case dto.Suffix != nil:
			row.Suffix = dto.Suffix.Name
			if u, nerr := match.Normalize(req.Input); nerr == nil {
				row.Hostname = u.Hostname
				row.Domain = match.ComposeDomain(u.Labels, *dto.Suffix)
			}
		default:
			if u, nerr := match.Normalize(req.Input); nerr == nil {
				row.Hostname = u.Hostname
			}
		}
		if serr := s.db.SaveLookup(row); serr != nil {
			logrus.WithError(serr).WithField("input", req.Input).Warn("save lookup")
		}
	}

	s.notifier.Broadcast(LookupEvent{Type: EventLookup, BatchID: req.BatchID, Lookup: &dto})

	fields := logrus.Fields{
		"operation": req.Operation,
		"input":     req.Input,
		"status":    dto.Status,
		"duration":  timer.Elapsed(),
	}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Debug("lookup failed")
	} else {
		logrus.WithFields(fields).Debug("lookup finished")
	}
}

// statusFor maps lookup failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, parser.ErrInvalidOptionType), errors.Is(err, errUnknownOperation):
		return http.StatusBadRequest
	case errors.Is(err, errUnknownSuffixSet), errors.Is(err, parser.ErrSuffixNotFound):
		return http.StatusNotFound
	case errors.Is(err, parser.ErrInvalidHostname), errors.Is(err, parser.ErrInvalidURL):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, parser.ErrSuffixNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, parser.ErrInvalidHostname):
		return metrics.OutcomeInvalidHost
	case errors.Is(err, parser.ErrInvalidURL):
		return metrics.OutcomeInvalidURL
	default:
		return metrics.OutcomeInvalidOption
	}
}

func (s *Server) handleParseQuery(c *gin.Context) {
	opts, err := optionsFromQuery(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	dto := s.lookup(lookupRequest{
		Operation: OperationParse,
		Input:     c.Query("url"),
		Options:   opts,
		SuffixSet: c.Query("suffix_set"),
	})
	s.renderLookup(c, dto)
}

func (s *Server) handleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	dto := s.lookup(lookupRequest{
		Operation: OperationParse,
		Input:     req.URL,
		Options:   req.Options,
		SuffixSet: req.SuffixSet,
	})
	s.renderLookup(c, dto)
}

func (s *Server) handleSuffix(c *gin.Context) {
	var req SuffixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	dto := s.lookup(lookupRequest{
		Operation: OperationSuffix,
		Input:     req.Input,
		Options:   req.Options,
		SuffixSet: req.SuffixSet,
	})
	s.renderLookup(c, dto)
}

// renderLookup writes the bare result of a single lookup, or its error.
func (s *Server) renderLookup(c *gin.Context, dto LookupDTO) {
	switch {
	case dto.Error != "":
		c.JSON(dto.Status, gin.H{"error": dto.Error})
	case dto.Result != nil:
		c.JSON(http.StatusOK, dto.Result)
	default:
		c.JSON(http.StatusOK, dto.Suffix)
	}
}

var optionBoolKeys = []string{"allow_unknown", "allow_private", "allow_ip"}

// optionsFromQuery decodes option query parameters.
func optionsFromQuery(c *gin.Context) (*parser.Options, error) {
	return decodeOptions(c.GetQuery)
}

// decodeOptions builds options from flat string parameters. It returns nil
// when none are present, so the configured defaults apply.
func decodeOptions(get func(key string) (string, bool)) (*parser.Options, error) {
	doc := make(map[string]any)
	for _, key := range optionBoolKeys {
		raw, ok := get(key)
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a boolean, got %q", parser.ErrInvalidOptionType, key, raw)
		}
		doc[key] = v
	}
	if raw, ok := get("extended"); ok {
		list := []string{}
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		doc["extended_suffixes"] = list
	}
	if len(doc) == 0 {
		return nil, nil
	}
	opts, err := parser.OptionsFromMap(doc)
	if err != nil {
		return nil, err
	}
	return &opts, nil
}
