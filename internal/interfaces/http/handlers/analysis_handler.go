package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/synthbench/reagent/internal/application/analysis"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/pkg/errors"
)

// AnalysisHandler exposes the reaction analysis pipeline over REST.
type AnalysisHandler struct {
	service *analysis.Service
}

func NewAnalysisHandler(service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type analyzeTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// AnalyzeText handles POST /api/v1/reactions/analyze.
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	result, err := h.service.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type analyzeComponentsRequest struct {
	Components []reaction.RawComponent `json:"components" binding:"required"`
}

// AnalyzeComponents handles POST /api/v1/reactions/components, the
// structured-input path that skips extraction.
func (h *AnalysisHandler) AnalyzeComponents(c *gin.Context) {
	var req analyzeComponentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	result, err := h.service.AnalyzeComponents(c.Request.Context(), req.Components)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reResolveRequest struct {
	Components  []*reaction.ResolvedComponent `json:"components" binding:"required"`
	ComponentID string                        `json:"component_id" binding:"required"`
	Name        string                        `json:"name" binding:"required"`
	Context     string                        `json:"context"`
}

// ReResolve handles POST /api/v1/reactions/reresolve: the client submits its
// current component set plus a corrected name for one component.  The
// optional reaction context feeds the assisted retry.
func (h *AnalysisHandler) ReResolve(c *gin.Context) {
	var req reResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	result, err := h.service.ReResolve(c.Request.Context(), req.Components, req.ComponentID, req.Name, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type recomputeRequest struct {
	Components []*reaction.ResolvedComponent `json:"components" binding:"required"`
}

// Recompute handles POST /api/v1/reactions/recompute, rerunning the
// stoichiometry pass after client-side quantity edits.
func (h *AnalysisHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	for _, comp := range req.Components {
		if comp != nil {
			comp.Normalize()
		}
	}
	c.JSON(http.StatusOK, h.service.Recompute(req.Components))
}

type lookupResponse struct {
	Compound *reaction.Compound        `json:"compound"`
	Source   reaction.ResolutionSource `json:"source"`
	Attempts []reaction.Attempt        `json:"attempts"`
}

// LookupCompound handles GET /api/v1/compounds/:name.  A definitive miss
// answers 404 with the attempt trace so callers can see what was tried.
func (h *AnalysisHandler) LookupCompound(c *gin.Context) {
	name := c.Param("name")
	compound, source, attempts, err := h.service.LookupCompound(c.Request.Context(), name)
	if err != nil {
		code := errors.GetCode(err)
		c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), gin.H{
			"code":     code.String(),
			"message":  err.Error(),
			"attempts": attempts,
		})
		return
	}
	c.JSON(http.StatusOK, lookupResponse{Compound: compound, Source: source, Attempts: attempts})
}

type narrativeRequest struct {
	Components []*reaction.ResolvedComponent `json:"components" binding:"required"`
}

// Narrative handles POST /api/v1/reactions/narrative.
func (h *AnalysisHandler) Narrative(c *gin.Context) {
	var req narrativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body"))
		return
	}
	text := h.service.Narrative(c.Request.Context(), req.Components)
	c.JSON(http.StatusOK, gin.H{"narrative": text})
}
