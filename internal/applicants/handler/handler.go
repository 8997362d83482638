// Package handler exposes the applicants HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qabul_backend/internal/applicants/repository"
	"qabul_backend/internal/applicants/service"
	"qabul_backend/internal/applicants/transport"
	"qabul_backend/platform/httpkit"
	"qabul_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) SubmitPassport(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.PassportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.SubmitPassport(c.Request.Context(), applicantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) GetPassport(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	resp, err := h.svc.GetPassport(c.Request.Context(), applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) SaveStudyInfo(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.StudyInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.SaveStudyInfo(c.Request.Context(), applicantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetApplication(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	resp, err := h.svc.GetApplication(c.Request.Context(), applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) FinalizeApplication(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	resp, err := h.svc.Finalize(c.Request.Context(), applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ListApplications(c *gin.Context) {
	status := c.DefaultQuery("status", repository.StatusSubmitted)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	apps, err := h.svc.ListApplications(c.Request.Context(), status, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, apps)
}

func (h *Handler) Decide(c *gin.Context) {
	applicantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Decide(c.Request.Context(), applicantID, req.Decision)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
