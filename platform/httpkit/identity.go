// Package httpkit provides helpers for reading request identity.
package httpkit

import (
	"qabul_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApplicantID extracts the authenticated applicant id set by AuthRequired.
func ApplicantID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(ContextApplicantIDKey)
	if !exists {
		return uuid.Nil, apperr.Unauthorized("not authenticated")
	}
	id, ok := raw.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("not authenticated")
	}
	return id, nil
}
