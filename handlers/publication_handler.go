package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"publication-system/helper"
	"publication-system/models"
	"publication-system/services"

	"github.com/gin-gonic/gin"
)

const pdfFormField = "pdf"

type PublicationHandler struct {
	publicationService services.PublicationService
	Helper             *helper.HTTPHelper
	maxUploadBytes     int64
}

func NewPublicationHandler(publicationService services.PublicationService, h *helper.HTTPHelper, maxUploadBytes int64) *PublicationHandler {
	return &PublicationHandler{publicationService: publicationService, Helper: h, maxUploadBytes: maxUploadBytes}
}

func (h *PublicationHandler) Submit(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req models.SubmitPublicationRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Helper.SendError(c, "PDF file is too large", h.Helper.EmptyJsonMap(), http.StatusRequestEntityTooLarge, `payloadTooLarge`)
			return
		}
		h.Helper.SendBadRequest(c, "Invalid form data", h.Helper.EmptyJsonMap())
		return
	}
	if !h.Helper.ValidateStruct(c, &req) {
		return
	}

	header, err := c.FormFile(pdfFormField)
	if err != nil {
		h.Helper.SendBadRequest(c, "PDF file is required", h.Helper.EmptyJsonMap())
		return
	}
	file, err := header.Open()
	if err != nil {
		h.Helper.SendBadRequest(c, "Could not read the uploaded file", h.Helper.EmptyJsonMap())
		return
	}
	defer file.Close()

	if !isPDF(header.Filename, file) {
		h.Helper.SendBadRequest(c, "Only PDF files are allowed", h.Helper.EmptyJsonMap())
		return
	}

	publication, err := h.publicationService.Submit(c.Request.Context(), actor(c), req, file)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Publication submitted for review", publication)
}

// isPDF checks the extension and the leading bytes, then rewinds r.
func isPDF(filename string, r io.ReadSeeker) bool {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return false
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(r, head)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return http.DetectContentType(head[:n]) == "application/pdf"
}

func (h *PublicationHandler) ListMine(c *gin.Context) {
	publications, err := h.publicationService.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", publications)
}

func (h *PublicationHandler) Library(c *gin.Context) {
	var params models.LibraryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query parameters", h.Helper.EmptyJsonMap())
		return
	}

	entries, err := h.publicationService.Library(c.Request.Context(), params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", entries)
}

func (h *PublicationHandler) Get(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	publication, err := h.publicationService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", publication)
}

func (h *PublicationHandler) UpdateAccess(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateAccessRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	publication, err := h.publicationService.UpdateAccess(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Publication updated", publication)
}

func (h *PublicationHandler) Decide(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	publication, err := h.publicationService.Decide(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Publication "+string(req.Status), publication)
}

func (h *PublicationHandler) Delete(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.publicationService.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Publication deleted", h.Helper.EmptyJsonMap())
}

func (h *PublicationHandler) ListAll(c *gin.Context) {
	var params models.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query parameters", h.Helper.EmptyJsonMap())
		return
	}

	publications, total, err := h.publicationService.ListAll(c.Request.Context(), actor(c), params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	params = services.NormalizePaging(params)
	h.Helper.SendSuccess(c, "Success", map[string]interface{}{
		"publications": publications,
		"paging":       h.Helper.GeneratePaging(c, params.Limit, params.Page, int(total)),
	})
}

func (h *PublicationHandler) UpdateMeta(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}
	var req models.UpdatePublicationMetaRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	publication, err := h.publicationService.AdminUpdateMeta(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Publication updated", publication)
}

func (h *PublicationHandler) Canonicalize(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.publicationService.Canonicalize(c.Request.Context(), actor(c), id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Publication file relocated", map[string]interface{}{
		"location": result.Location,
		"pdf_path": result.Path,
	})
}
