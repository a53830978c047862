package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/claimgraph/internal/logger"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/pairs"
	"github.com/ppiankov/claimgraph/internal/pipeline"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GraphHandler serves pair selection, scoring and full analysis
type GraphHandler struct {
	analyzer   *pipeline.Analyzer
	typeWindow int
	log        *logger.Logger
}

func NewGraphHandler(analyzer *pipeline.Analyzer, cfg *model.Config, log *logger.Logger) *GraphHandler {
	return &GraphHandler{analyzer: analyzer, typeWindow: cfg.Selection.TypeWindow, log: log}
}

type PairsRequest struct {
	Claims   []model.Claim `json:"claims" binding:"required"`
	MaxPairs int           `json:"max_pairs" binding:"gte=0"`
}

type PairsResponse struct {
	Pairs []model.CandidatePair `json:"pairs"`
	Count int                   `json:"count"`
}

// SelectPairs handles POST /api/v1/pairs
func (h *GraphHandler) SelectPairs(c *gin.Context) {
	var req PairsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	selector := h.analyzer.Selector()
	if req.MaxPairs > 0 {
		s, err := pairs.NewSelector(pairs.Options{MaxPairs: req.MaxPairs, TypeWindow: h.typeWindow})
		if err != nil {
			respondDomainError(c, err)
			return
		}
		selector = s
	}

	selected, err := selector.Select(req.Claims)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, PairsResponse{Pairs: selected, Count: len(selected)})
}

type ScoreRequest struct {
	Claims []model.Claim      `json:"claims" binding:"required"`
	Edges  []model.Dependency `json:"edges"`
}

// Score handles POST /api/v1/score
func (h *GraphHandler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	result, err := h.analyzer.Scorer().Score(c.Request.Context(), req.Claims, req.Edges)
	if err != nil {
		h.log.Warn("score rejected", "error", err)
		respondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

type AnalyzeRequest struct {
	Subject string        `json:"subject"`
	Claims  []model.Claim `json:"claims" binding:"required"`
}

// Analyze handles POST /api/v1/analyze
func (h *GraphHandler) Analyze(c *gin.Context) {
	if !h.analyzer.HasClassifier() {
		RespondError(c, http.StatusServiceUnavailable, CodeClassifierUnavailable, pipeline.ErrNoClassifier)
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	if req.Subject == "" {
		req.Subject = fmt.Sprintf("api request (%d claims)", len(req.Claims))
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), req.Subject, req.Claims)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, report)
}
