// Package handler exposes the documents HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qabul_backend/internal/documents/service"
	"qabul_backend/platform/httpkit"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Upload accepts a multipart form with a single "file" part. The document
// type comes from the path so the route itself documents what it stores.
func (h *Handler) Upload(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(
		c.Request.Context(),
		applicantID,
		c.Param("type"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, doc)
}

func (h *Handler) List(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	docs, err := h.svc.List(c.Request.Context(), applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, docs)
}

// AdminDownloadURL presigns a document of any applicant for the admissions
// office.
func (h *Handler) AdminDownloadURL(c *gin.Context) {
	applicantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.DownloadURL(c.Request.Context(), applicantID, c.Param("type"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
