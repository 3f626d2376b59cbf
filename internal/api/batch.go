package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"domain-parser/internal/parser"
	"domain-parser/internal/util"
)

const maxBatchRows = 10000

// handleBatch runs a lookup for every URL of a CSV upload (multipart field
// "urls") or of a JSON body.
func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		parsed, err := s.batchFromForm(c)
		if err != nil {
			status := http.StatusBadRequest
			if !errors.Is(err, parser.ErrInvalidOptionType) && !errors.Is(err, errBadUpload) {
				status = http.StatusInternalServerError
			}
			s.renderError(c, status, err)
			return
		}
		req = *parsed
	} else if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	if req.Operation == "" {
		req.Operation = OperationParse
	}
	if req.Operation != OperationParse && req.Operation != OperationSuffix {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("%w %q", errUnknownOperation, req.Operation))
		return
	}

	inputs := make([]string, 0, len(req.URLs))
	for _, value := range req.URLs {
		if value = strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")); value != "" {
			inputs = append(inputs, value)
		}
	}
	if len(inputs) == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("no urls provided"))
		return
	}
	if len(inputs) > maxBatchRows {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("batch has %d rows, limit is %d", len(inputs), maxBatchRows))
		return
	}
	// Fail fast on a bad suffix set instead of once per row.
	if _, err := s.resolveOptions(req.Options, strings.TrimSpace(req.SuffixSet)); err != nil {
		s.renderError(c, statusFor(err), err)
		return
	}

	timer := util.StartTimer()
	resp := BatchResponse{
		BatchID:   uuid.NewString(),
		Operation: req.Operation,
		RowCount:  len(inputs),
		Items:     make([]LookupDTO, 0, len(inputs)),
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		seen[strings.ToLower(input)] = struct{}{}
		dto := s.lookup(lookupRequest{
			Operation: req.Operation,
			Input:     input,
			Options:   req.Options,
			SuffixSet: req.SuffixSet,
			BatchID:   resp.BatchID,
		})
		if dto.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Items = append(resp.Items, dto)
	}
	resp.UniqueInputs = len(seen)
	resp.DuplicateRows = resp.RowCount - resp.UniqueInputs

	logrus.WithFields(logrus.Fields{
		"batch_id":  resp.BatchID,
		"operation": resp.Operation,
		"rows":      resp.RowCount,
		"failed":    resp.Failed,
		"duration":  timer.Elapsed(),
	}).Info("batch lookup finished")

	c.JSON(http.StatusOK, resp)
}

var errBadUpload = errors.New("bad upload")

func (s *Server) batchFromForm(c *gin.Context) (*BatchRequest, error) {
	fileHeader, err := c.FormFile("urls")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("%w: urls csv file is required", errBadUpload)
		}
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}

	path, cleanup, err := saveFormFile(fileHeader)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	urls, err := parseURLCSV(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}

	req := &BatchRequest{
		URLs:      urls,
		Operation: strings.TrimSpace(c.PostForm("operation")),
		SuffixSet: strings.TrimSpace(c.PostForm("suffix_set")),
	}
	opts, err := decodeOptions(c.GetPostForm)
	if err != nil {
		return nil, err
	}
	req.Options = opts
	return req, nil
}

func saveFormFile(header *multipart.FileHeader) (string, func(), error) {
	if header == nil {
		return "", nil, errors.New("file header is nil")
	}
	src, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}

// parseURLCSV reads one URL per row. A header row naming a url, domain or
// host column selects that column, otherwise the first column is used.
func parseURLCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		col             = -1
		headerProcessed bool
		urls            []string
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if !headerProcessed {
			headerProcessed = true
			if col = detectURLColumn(record); col >= 0 {
				continue // header row
			}
			col = 0
		}
		if col >= len(record) {
			continue
		}

		value := strings.TrimSpace(strings.TrimPrefix(record[col], "\ufeff"))
		if value == "" {
			continue
		}
		urls = append(urls, value)
		if len(urls) > maxBatchRows {
			return nil, fmt.Errorf("csv has more than %d rows", maxBatchRows)
		}
	}
	if len(urls) == 0 {
		return nil, errors.New("no urls detected in csv")
	}
	return urls, nil
}

func detectURLColumn(record []string) int {
	for idx, value := range record {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
		switch normalized {
		case "url", "urls", "domain", "domains", "hostname", "host", "input":
			return idx
		}
	}
	return -1
}
