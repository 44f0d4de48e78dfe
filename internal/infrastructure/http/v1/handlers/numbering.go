package handlers

import (
	"github.com/gin-gonic/gin"

	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/http/v1/dto"
)

// NumberingHandler exposes generator configuration and number issuance.
type NumberingHandler struct {
	*BaseHandler
	service *numbering.Service
}

// NewNumberingHandler creates a new numbering handler.
func NewNumberingHandler(base *BaseHandler, service *numbering.Service) *NumberingHandler {
	return &NumberingHandler{BaseHandler: base, service: service}
}

// List handles GET /numbering/generators.
func (h *NumberingHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromGenerators(list)))
}

// Create handles POST /numbering/generators.
func (h *NumberingHandler) Create(c *gin.Context) {
	var req dto.GeneratorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	g := req.ToGenerator()
	if err := h.service.Create(c.Request.Context(), g); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromGenerator(g))
}

// Validate handles POST /numbering/generators/validate.
// Always 200: the body lists the problems, if any.
func (h *NumberingHandler) Validate(c *gin.Context) {
	var req dto.GeneratorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	errs, err := h.service.Validate(c.Request.Context(), req.ToGenerator())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewValidationResponse(errs))
}

// Get handles GET /numbering/generators/:productCode.
func (h *NumberingHandler) Get(c *gin.Context) {
	g, err := h.service.Get(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGenerator(g))
}

// Update handles PUT /numbering/generators/:productCode.
func (h *NumberingHandler) Update(c *gin.Context) {
	var req dto.GeneratorRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ProductCode = c.Param("productCode")

	g := req.ToGenerator()
	if err := h.service.Update(c.Request.Context(), g); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGenerator(g))
}

// History handles GET /numbering/generators/:productCode/history.
func (h *NumberingHandler) History(c *gin.Context) {
	limit := h.QueryLimit(c, 50, 500)
	revs, err := h.service.History(c.Request.Context(), c.Param("productCode"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromRevisions(revs)))
}

// Next handles POST /numbering/generators/:productCode/next.
func (h *NumberingHandler) Next(c *gin.Context) {
	issued, err := h.service.Next(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromIssued(issued))
}

// Decode handles POST /numbering/generators/:productCode/decode.
func (h *NumberingHandler) Decode(c *gin.Context) {
	var req dto.DecodeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productCode := c.Param("productCode")
	value, err := h.service.Decode(c.Request.Context(), productCode, req.Number)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.DecodeResponse{ProductCode: productCode, Number: req.Number, Value: value})
}
