// Package service implements applicant document storage: passport scans and
// school certificates uploaded to object storage and published as links.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"qabul_backend/internal/adapters/storage"
	"qabul_backend/internal/documents/repository"
	"qabul_backend/internal/documents/transport"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository.
type Store interface {
	Upsert(ctx context.Context, d repository.Document) error
	Get(ctx context.Context, applicantID uuid.UUID, docType string) (repository.Document, error)
	List(ctx context.Context, applicantID uuid.UUID) ([]repository.Document, error)
}

type Service struct {
	store   Store
	storage storage.StorageService
	bucket  string
	baseURL string
	log     *logger.Logger
}

func New(store Store, storageSvc storage.StorageService, cfg config.StorageConfig, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		storage: storageSvc,
		bucket:  cfg.GetMinioBucketDocuments(),
		baseURL: strings.TrimRight(cfg.GetPublicFileBaseURL(), "/"),
		log:     log,
	}
}

// Upload stores the file and records its public link. A re-upload replaces
// the stored document; the old object is removed best-effort.
func (s *Service) Upload(ctx context.Context, applicantID uuid.UUID, docType, fileName, contentType string, reader io.Reader, size int64) (transport.DocumentResponse, error) {
	if docType != repository.TypePassport && docType != repository.TypeCertificate {
		return transport.DocumentResponse{}, apperr.Validation("document type must be passport or certificate")
	}
	if err := s.storage.ValidateContentType(contentType); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}

	previous, err := s.store.Get(ctx, applicantID, docType)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return transport.DocumentResponse{}, err
	}

	folder := fmt.Sprintf("%s/%s", applicantID, docType)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, fileName, contentType, reader, size)
	if err != nil {
		return transport.DocumentResponse{}, fmt.Errorf("upload document: %w", err)
	}

	doc := repository.Document{
		ApplicantID: applicantID,
		Type:        docType,
		FileKey:     fileKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		Link:        s.publicLink(fileKey),
	}
	if err := s.store.Upsert(ctx, doc); err != nil {
		return transport.DocumentResponse{}, err
	}

	if previous.FileKey != "" && previous.FileKey != fileKey {
		if err := s.storage.DeleteObject(ctx, s.bucket, previous.FileKey); err != nil {
			s.log.Warn("failed to remove replaced document", "fileKey", previous.FileKey, "error", err)
		}
	}

	doc.UpdatedAt = time.Now()
	return toResponse(doc), nil
}

// List returns the applicant's uploaded documents.
func (s *Service) List(ctx context.Context, applicantID uuid.UUID) ([]transport.DocumentResponse, error) {
	docs, err := s.store.List(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toResponse(d))
	}
	return out, nil
}

// DownloadURL returns a short-lived presigned link for one document. Used by
// the admissions office; the stable public link may sit behind an internal
// proxy.
func (s *Service) DownloadURL(ctx context.Context, applicantID uuid.UUID, docType string) (transport.DownloadURLResponse, error) {
	doc, err := s.store.Get(ctx, applicantID, docType)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.DownloadURLResponse{}, apperr.NotFound("document not found")
	}
	if err != nil {
		return transport.DownloadURLResponse{}, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.bucket, doc.FileKey)
	if err != nil {
		return transport.DownloadURLResponse{}, fmt.Errorf("presign document: %w", err)
	}

	return transport.DownloadURLResponse{
		URL:       presigned.URL,
		ExpiresAt: presigned.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) publicLink(fileKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, fileKey)
}

func toResponse(d repository.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		Type:        d.Type,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Link:        d.Link,
		UploadedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}
