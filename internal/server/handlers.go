package server

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/talentflow-cli/internal/analysis"
	"github.com/KaramelBytes/talentflow-cli/internal/dataset"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NoticeResponse replaces a view that could not be computed from the data.
type NoticeResponse struct {
	View   string `json:"view"`
	Notice string `json:"notice"`
}

// viewQuery holds every query parameter a view understands.
type viewQuery struct {
	OriginRegions  []string `form:"origin_region"`
	DestRegions    []string `form:"dest_region"`
	YearMin        *int     `form:"year_min"`
	YearMax        *int     `form:"year_max"`
	MinResearchers *int64   `form:"min_researchers"`
	NoFilters      bool     `form:"no_filters"`
	N              *int     `form:"n"`
	K              *int     `form:"k"`
	A              string   `form:"a"`
	B              string   `form:"b"`
}

// filter overlays the request parameters on base.
func (q viewQuery) filter(base analysis.Filter) (analysis.Filter, error) {
	f := base
	if q.NoFilters {
		f = analysis.Filter{}
	}
	if len(q.OriginRegions) > 0 {
		f.OriginRegions = q.OriginRegions
	}
	if len(q.DestRegions) > 0 {
		f.DestRegions = q.DestRegions
	}
	if q.YearMin != nil || q.YearMax != nil {
		yr := analysis.YearRange{Min: math.MinInt32, Max: math.MaxInt32}
		if f.YearRange != nil {
			yr = *f.YearRange
		}
		if q.YearMin != nil {
			yr.Min = *q.YearMin
		}
		if q.YearMax != nil {
			yr.Max = *q.YearMax
		}
		f.YearRange = &yr
	}
	if q.MinResearchers != nil {
		f.MinResearchers = q.MinResearchers
	}
	return f, f.Validate()
}

func (q viewQuery) n(def int) int {
	if q.N != nil {
		return *q.N
	}
	return def
}

// request is what a bundle-backed handler receives.
type request struct {
	bundle *dataset.Bundle
	filter analysis.Filter
	flows  *dataset.FlowTable
	query  viewQuery
}

type viewHandler func(c *gin.Context, r *request)

// withBundle parses the query, resolves the cached bundle and applies the
// filter before calling h.
func (s *Server) withBundle(h viewHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q viewQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
			return
		}
		f, err := q.filter(s.opts.Filter)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		if q.N != nil && *q.N < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "n must be >= 0"})
			return
		}
		b, err := s.loader.LoadAll(c.Request.Context())
		if err != nil {
			s.loadFailed(c, err)
			return
		}
		c.Header(SnapshotHeader, b.SnapshotID)
		h(c, &request{bundle: b, filter: f, flows: analysis.ApplyFilters(b.Flows, f), query: q})
	}
}

func (s *Server) loadFailed(c *gin.Context, err error) {
	var le *dataset.LoadError
	switch {
	case errors.Is(err, dataset.ErrFlowsMissing), errors.As(err, &le):
		s.log.Warn("data unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		s.log.Error("load failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// viewError maps an analysis error to a notice, a client error or a server error.
func (s *Server) viewError(c *gin.Context, view string, err error) {
	switch {
	case analysis.IsInsufficient(err):
		c.JSON(http.StatusOK, NoticeResponse{View: view, Notice: err.Error()})
	case errors.Is(err, analysis.ErrInvalidClusterCount), errors.Is(err, analysis.ErrUnknownColumn):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		s.log.Error("view failed", "view", view, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	store := s.loader.Store()
	b, err := s.loader.LoadAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"data_dir": s.loader.Dir(),
			"tables":   dataset.Status(nil),
			"error":    err.Error(),
			"cache":    store.Stats(),
		})
		return
	}
	c.Header(SnapshotHeader, b.SnapshotID)
	body := gin.H{
		"data_dir":    b.Dir,
		"snapshot_id": b.SnapshotID,
		"loaded_at":   b.LoadedAt,
		"tables":      dataset.Status(b),
		"regions":     dataset.AvailableRegions(b.Flows),
		"cache":       store.Stats(),
	}
	if lo, hi, ok := dataset.YearBounds(b.Flows); ok {
		body["years"] = analysis.YearRange{Min: lo, Max: hi}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSummary(c *gin.Context, r *request) {
	body := gin.H{"filter": r.filter, "summary": analysis.SummaryStats(r.flows)}
	if d, ok := analysis.Spread(r.flows); ok {
		body["dispersion"] = d
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleBalance(c *gin.Context, r *request) {
	c.JSON(http.StatusOK, gin.H{"filter": r.filter, "balances": analysis.ComputeNetMigration(r.flows)})
}

func (s *Server) handleTopEmitters(c *gin.Context, r *request) {
	c.JSON(http.StatusOK, gin.H{"rows": analysis.TopEmitters(r.flows, r.query.n(s.opts.Analysis.TopN))})
}

func (s *Server) handleTopReceivers(c *gin.Context, r *request) {
	c.JSON(http.StatusOK, gin.H{"rows": analysis.TopReceivers(r.flows, r.query.n(s.opts.Analysis.TopN))})
}

func (s *Server) handleTopCorridors(c *gin.Context, r *request) {
	c.JSON(http.StatusOK, gin.H{"rows": analysis.TopCorridors(r.flows, r.query.n(s.opts.Analysis.TopCorridors))})
}

func (s *Server) handleRegions(c *gin.Context, r *request) {
	c.JSON(http.StatusOK, gin.H{
		"flows":  analysis.RegionalFlows(r.flows),
		"totals": analysis.ComputeRegionTotals(r.flows),
	})
}

// handleCorrelations returns one pair when a and b are set, the full matrix
// otherwise. Both use every route.
func (s *Server) handleCorrelations(c *gin.Context, r *request) {
	balances := analysis.ComputeNetMigration(r.bundle.Flows)
	if r.query.A != "" || r.query.B != "" {
		pair, err := analysis.Correlate(balances, r.query.A, r.query.B)
		if err != nil {
			s.viewError(c, "correlations", err)
			return
		}
		c.JSON(http.StatusOK, pair)
		return
	}
	m, err := analysis.CorrelationMatrix(balances)
	if err != nil {
		s.viewError(c, "correlations", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleClusters(c *gin.Context, r *request) {
	k := s.opts.Analysis.ClusterK
	if r.query.K != nil {
		k = *r.query.K
	}
	res, err := analysis.Cluster(analysis.ComputeNetMigration(r.bundle.Flows), k)
	if err != nil {
		s.viewError(c, "clusters", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleEconomy(c *gin.Context, r *request) {
	eco, err := analysis.EconomyFor(r.bundle, r.flows, analysis.ComputeNetMigration(r.flows), s.opts.Analysis)
	if err != nil {
		s.viewError(c, "economy", err)
		return
	}
	c.JSON(http.StatusOK, eco)
}

func (s *Server) handleTimeline(c *gin.Context, r *request) {
	body := gin.H{}
	notices := []NoticeResponse{}
	if dec, ok := analysis.FlowsByDecade(r.flows); ok {
		body["decades"] = dec
	} else {
		notices = append(notices, NoticeResponse{View: "decades", Notice: "phd_year_mean column not available"})
	}
	if r.bundle.Migrations.Present {
		body["migrations_by_year"] = analysis.MigrationsByYear(r.bundle.Migrations.Value)
	} else {
		notices = append(notices, NoticeResponse{View: "migrations_by_year", Notice: r.bundle.Migrations.Reason})
	}
	body["notices"] = notices
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleDashboard(c *gin.Context, r *request) {
	opt := s.opts.Analysis
	if r.query.K != nil {
		opt.ClusterK = *r.query.K
	}
	if r.query.N != nil {
		opt.TopN = *r.query.N
	}
	d, err := analysis.BuildDashboard(r.bundle, r.filter, opt)
	if err != nil {
		s.viewError(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handlePurge(c *gin.Context) {
	n := s.loader.Store().Purge()
	s.log.Info("cache purged", "entries", n)
	c.JSON(http.StatusOK, gin.H{"purged": n})
}
