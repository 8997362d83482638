// Package handler exposes the auth HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qabul_backend/internal/auth/service"
	"qabul_backend/internal/auth/transport"
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

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.Register(c.Request.Context(), req.PhoneNumber, req.Password); httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, gin.H{"message": "verification code sent"})
}

func (h *Handler) VerifyPhone(c *gin.Context) {
	var req transport.VerifyPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	accessToken, err := h.svc.VerifyPhone(c.Request.Context(), req.PhoneNumber, req.Code)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AuthResponse{AccessToken: accessToken})
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	accessToken, err := h.svc.SignIn(c.Request.Context(), req.PhoneNumber, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AuthResponse{AccessToken: accessToken})
}

func (h *Handler) ResendCode(c *gin.Context) {
	var req transport.ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.ResendCode(c.Request.Context(), req.PhoneNumber); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "verification code sent"})
}

func (h *Handler) GetMe(c *gin.Context) {
	applicantID, err := httpkit.ApplicantID(c)
	if httpkit.HandleError(c, err) {
		return
	}

	applicant, err := h.svc.GetMe(c.Request.Context(), applicantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ProfileResponse{
		ID:            applicant.ID.String(),
		PhoneNumber:   applicant.PhoneNumber,
		PhoneVerified: applicant.PhoneVerified,
	})
}
