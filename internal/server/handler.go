package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/ppiankov/glosshover/internal/pipeline"
	"github.com/sirupsen/logrus"
)

// maxRequestBytes caps POST /api/annotate bodies
const maxRequestBytes = 8 << 20

// AnnotateRequest is the body of POST /api/annotate
type AnnotateRequest struct {
	Source  string              `json:"source"`
	Kind    string              `json:"kind"` // checked against content.enabled_kinds
	Content string              `json:"content" binding:"required"`
	Terms   []model.Term        `json:"terms"`  // omitted: configured glossary
	Render  *model.RenderConfig `json:"render"` // merged over the configured render settings
}

// AnnotateResponse is the data of a successful annotation
type AnnotateResponse struct {
	HTML   string        `json:"html"`
	Report *model.Report `json:"report"`
}

// TermsResponse lists the configured glossary
type TermsResponse struct {
	Total int          `json:"total"`
	Terms []model.Term `json:"terms"`
}

// Handler serves the glossary API
type Handler struct {
	pipeline *pipeline.Pipeline
	source   glossary.Source
	log      *logrus.Logger
}

// NewHandler creates a handler. source may be nil when only inline terms are used.
func NewHandler(p *pipeline.Pipeline, source glossary.Source, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{pipeline: p, source: source, log: log}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	success(c, gin.H{"status": "ok"})
}

// ListTerms returns the configured glossary in match order
func (h *Handler) ListTerms(c *gin.Context) {
	if h.source == nil {
		fail(c, http.StatusNotFound, "no glossary configured")
		return
	}

	terms, err := h.source.Terms(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to load terms")
		fail(c, http.StatusInternalServerError, "failed to load terms")
		return
	}
	success(c, TermsResponse{Total: len(terms), Terms: terms})
}

// Annotate wraps glossary terms in the posted content
func (h *Handler) Annotate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	// Posted render fields override the configured settings one by one
	render := h.pipeline.Render()
	req := AnnotateRequest{Render: &render}
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Terms != nil {
		terms, err := glossary.Prepare(req.Terms)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		req.Terms = terms
	} else if h.source == nil {
		fail(c, http.StatusBadRequest, "terms are required: no glossary configured")
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	out, err := h.pipeline.Annotate(c.Request.Context(), pipeline.Request{
		Source:  source,
		Kind:    req.Kind,
		Content: req.Content,
		Terms:   req.Terms,
		Render:  req.Render,
	})
	if err != nil {
		h.log.WithError(err).Error("annotation request failed")
		fail(c, http.StatusInternalServerError, "failed to load terms")
		return
	}

	success(c, AnnotateResponse{HTML: out.HTML, Report: out.Report})
}
