package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/avajson/internal/domain/document"
	"github.com/geocoder89/avajson/internal/gateway"
)

type DocumentGateway interface {
	Serve(ctx context.Context, req gateway.ServeRequest) (document.Document, error)
	Describe(ctx context.Context) (gateway.Description, error)
}

type DocumentsHandler struct {
	gw DocumentGateway
}

func NewDocumentsHandler(gw DocumentGateway) *DocumentsHandler {
	return &DocumentsHandler{gw: gw}
}

// GetJSONRequest leaves presence checks to the gateway so a missing name or
// pin gets the same answer whichever way it is missing. Name and pin have no
// length rule, MaxBodyBytes bounds them. A null file decodes to nil like an
// omitted one.
type GetJSONRequest struct {
	Name string  `json:"name"`
	PIN  string  `json:"pin"`
	File *string `json:"file" binding:"omitempty,max=128"`
}

// GetJSON answers POST /api/get_json with the raw document bytes.
func (h *DocumentsHandler) GetJSON(ctx *gin.Context) {
	var req GetJSONRequest

	if !BindJSON(ctx, &req) {
		return
	}

	doc, err := h.gw.Serve(ctx.Request.Context(), gateway.ServeRequest{
		Name: req.Name,
		PIN:  req.PIN,
		File: req.File,
	})
	if err != nil {
		RespondGatewayError(ctx, err, "Could not load document")
		return
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, doc.Body)
}

// Root answers GET / with the document and user listing. Unauthenticated.
func (h *DocumentsHandler) Root(ctx *gin.Context) {
	d, err := h.gw.Describe(ctx.Request.Context())
	if err != nil {
		RespondGatewayError(ctx, err, "Could not describe server")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, d)
}
