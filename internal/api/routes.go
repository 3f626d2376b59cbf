package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"domain-parser/internal/metrics"
	"domain-parser/internal/parser"
	"domain-parser/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	AllowedOrigins []string
	SilentDB       bool
	RecordLookups  bool
	Metrics        bool
	// Defaults apply to requests that carry no options.
	Defaults parser.Options
	// Parser defaults to one backed by the embedded suffix list.
	Parser *parser.Parser
}

// Server wires HTTP handlers with the parser and persistence.
type Server struct {
	db             *store.Database
	parser         *parser.Parser
	defaults       parser.Options
	allowedOrigins []string
	recordLookups  bool
	metricsEnabled bool
	notifier       *LookupNotifier
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	p := cfg.Parser
	if p == nil {
		p = parser.Default()
	}
	stats := p.Database().Stats()
	if cfg.Metrics {
		metrics.SetDatasetStats(stats)
	}
	logrus.WithFields(logrus.Fields{
		"icann":          stats.ICANN,
		"private":        stats.Private,
		"skipped":        stats.Skipped,
		"record_lookups": cfg.RecordLookups,
		"metrics":        cfg.Metrics,
	}).Info("suffix database ready")

	return &Server{
		db:             db,
		parser:         p,
		defaults:       cfg.Defaults,
		allowedOrigins: cfg.AllowedOrigins,
		recordLookups:  cfg.RecordLookups,
		metricsEnabled: cfg.Metrics,
		notifier:       NewLookupNotifier(),
	}, nil
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)
	if s.metricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/parse", s.handleParseQuery)
		api.POST("/parse", s.handleParse)
		api.POST("/suffix", s.handleSuffix)
		api.POST("/batch", s.handleBatch)
		api.GET("/lookups", s.handleListLookups)
		api.DELETE("/lookups", s.handleClearLookups)
		api.GET("/export.csv", s.handleExportCSV)
		api.GET("/suffix-sets", s.handleListSuffixSets)
		api.GET("/suffix-sets/:name", s.handleGetSuffixSet)
		api.PUT("/suffix-sets/:name", s.handlePutSuffixSet)
		api.DELETE("/suffix-sets/:name", s.handleDeleteSuffixSet)
		api.GET("/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	sets, err := s.db.ListSuffixSets()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	lookups, err := s.db.CountLookups()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, ConfigResponse{
		Dataset:       s.parser.Database().Stats(),
		Defaults:      s.defaults,
		RecordLookups: s.recordLookups,
		Metrics:       s.metricsEnabled,
		SuffixSets:    len(sets),
		Lookups:       lookups,
		LastLookup:    s.notifier.LastLookup(),
	})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
