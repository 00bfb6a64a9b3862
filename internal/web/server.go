// Package web serves the dashboard page, the dataset API and the artifacts of a run.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/riskboard/core"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/logging"
	"github.com/huangsam/riskboard/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// routes maps each dataset to its API path segment.
var routes = map[schema.DatasetName]string{
	schema.StateCountsDataset: "state-counts",
	schema.RiskCountsDataset:  "risk-counts",
	schema.RegionRiskDataset:  "region-risk",
	schema.CountryRiskDataset: "country-risk",
}

// Server holds the latest pipeline result and serves it over HTTP.
type Server struct {
	cfg *contract.Config

	mu     sync.RWMutex
	result *core.Result
}

// NewServer creates a server for a completed run.
func NewServer(cfg *contract.Config, result *core.Result) *Server {
	return &Server{cfg: cfg, result: result}
}

// SetResult swaps in the result of a newer run.
func (s *Server) SetResult(result *core.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// Rebuild reruns the pipeline over the configured input, rewrites the artifacts
// and serves the new result. The previous result stays in place on error.
func (s *Server) Rebuild(ctx context.Context) error {
	result, err := core.ExecuteBuild(core.WithSuppressHeader(ctx), s.cfg, io.Discard)
	if err != nil {
		return err
	}
	s.SetResult(result)
	logging.Get().Info("dashboard reloaded", zap.String("run_id", result.Summary.RunID))
	return nil
}

func (s *Server) current() *core.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/artifacts", s.cfg.OutputDir)

	api := router.Group("/api")
	api.GET("/summary", s.handleSummary)
	api.GET("/"+routes[schema.StateCountsDataset], s.handleStateCounts)
	api.GET("/"+routes[schema.RiskCountsDataset], s.handleRiskCounts)
	api.GET("/"+routes[schema.RegionRiskDataset], s.handleRegionRisk)
	api.GET("/"+routes[schema.CountryRiskDataset], s.handleCountryRisk)
	return router, nil
}

// Serve listens on cfg.Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	router, err := s.Router()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Get().Info("serving dashboard", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// datasetView is one dataset section of the index page.
type datasetView struct {
	Name      schema.DatasetName
	Title     string
	Route     string
	Artifacts []string
}

func (s *Server) handleIndex(c *gin.Context) {
	result := s.current()
	views := make([]datasetView, 0, len(schema.AllDatasets))
	for _, name := range schema.AllDatasets {
		views = append(views, datasetView{
			Name:      name,
			Title:     schema.DatasetTitles[name],
			Route:     routes[name],
			Artifacts: s.artifactsOf(name),
		})
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Summary":  result.Summary,
		"Datasets": views,
	})
}

// artifactsOf lists the file artifacts of a dataset present in the output directory.
func (s *Server) artifactsOf(name schema.DatasetName) []string {
	var found []string
	for _, ext := range []string{"json", "csv", "parquet"} {
		path := contract.ArtifactPath(s.cfg.OutputDir, name, ext)
		if _, err := os.Stat(path); err == nil {
			found = append(found, string(name)+"."+ext)
		}
	}
	return found
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "run_id": s.current().Summary.RunID})
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.current().Summary)
}

func (s *Server) handleStateCounts(c *gin.Context) {
	c.JSON(http.StatusOK, schema.NewTimeSeriesChart(schema.StateCountsDataset, s.current().Datasets.StateCounts))
}

func (s *Server) handleRiskCounts(c *gin.Context) {
	c.JSON(http.StatusOK, schema.NewTimeSeriesChart(schema.RiskCountsDataset, s.current().Datasets.RiskCounts))
}

func (s *Server) handleRegionRisk(c *gin.Context) {
	s.serveGroups(c, func(d schema.Datasets) schema.GroupRiskTable { return d.RegionRisk }, core.RegionRiskTable)
}

func (s *Server) handleCountryRisk(c *gin.Context) {
	s.serveGroups(c, func(d schema.Datasets) schema.GroupRiskTable { return d.CountryRisk }, core.CountryRiskTable)
}

// serveGroups returns a group table, regrouping the stored rows when the
// request carries a min_support.
func (s *Server) serveGroups(
	c *gin.Context,
	pick func(schema.Datasets) schema.GroupRiskTable,
	regroup func([]schema.DerivedRow, core.DatasetOptions) schema.GroupRiskTable,
) {
	result := s.current()
	raw, ok := c.GetQuery("min_support")
	if !ok {
		c.JSON(http.StatusOK, pick(result.Datasets))
		return
	}
	minSupport, err := strconv.Atoi(raw)
	if err != nil || minSupport < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_support must be a non-negative integer"})
		return
	}
	opts := core.OptionsFromConfig(s.cfg)
	opts.MinSupport = minSupport
	c.JSON(http.StatusOK, regroup(result.Rows, opts))
}

// requestLogger logs each request through zap.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Get().Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
