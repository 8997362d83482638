package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"qabul_backend/internal/adapters/storage"
	"qabul_backend/internal/documents/repository"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/logger"
)

type fakeStore struct {
	docs map[string]repository.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]repository.Document)}
}

func key(id uuid.UUID, docType string) string { return id.String() + "/" + docType }

func (f *fakeStore) Upsert(_ context.Context, d repository.Document) error {
	f.docs[key(d.ApplicantID, d.Type)] = d
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID, docType string) (repository.Document, error) {
	d, ok := f.docs[key(id, docType)]
	if !ok {
		return repository.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) List(_ context.Context, id uuid.UUID) ([]repository.Document, error) {
	var out []repository.Document
	for _, d := range f.docs {
		if d.ApplicantID == id {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeStorage struct {
	uploads int
	deletes []string
	lastKey string
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	f.uploads++
	f.lastKey = fmt.Sprintf("%s/%s_%d", folder, fileName, f.uploads)
	return f.lastKey, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://minio.example.com/" + bucket + "/" + fileKey + "?signed",
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _, fileKey string) error {
	f.deletes = append(f.deletes, fileKey)
	return nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }

func (f *fakeStorage) ValidateContentType(contentType string) error {
	if contentType != "application/pdf" && !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (f *fakeStorage) ValidateFileSize(size int64) error {
	if size <= 0 || size > 10<<20 {
		return fmt.Errorf("bad size")
	}
	return nil
}

type storageConfig struct{}

func (storageConfig) GetMinIOEndpoint() string        { return "minio:9000" }
func (storageConfig) GetMinIOAccessKey() string       { return "access" }
func (storageConfig) GetMinIOSecretKey() string       { return "secret" }
func (storageConfig) GetMinIOUseSSL() bool            { return false }
func (storageConfig) GetMinIOMaxFileSize() int64      { return 10 << 20 }
func (storageConfig) GetMinioBucketDocuments() string { return "applicant-documents" }
func (storageConfig) GetPublicFileBaseURL() string    { return "https://files.example.com/" }
func (storageConfig) IsMinIOEnabled() bool            { return true }

func newTestService(store *fakeStore, fs *fakeStorage) *Service {
	return New(store, fs, storageConfig{}, logger.New("development"))
}

func TestUpload_StoresDocumentWithPublicLink(t *testing.T) {
	store := newFakeStore()
	fs := &fakeStorage{}
	svc := newTestService(store, fs)
	applicantID := uuid.New()

	doc, err := svc.Upload(context.Background(), applicantID, "passport", "scan.pdf", "application/pdf", strings.NewReader("content"), 7)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if fs.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", fs.uploads)
	}
	wantLink := "https://files.example.com/applicant-documents/" + fs.lastKey
	if doc.Link != wantLink {
		t.Errorf("link = %q, want %q", doc.Link, wantLink)
	}
	stored := store.docs[key(applicantID, "passport")]
	if stored.FileKey != fs.lastKey || stored.SizeBytes != 7 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpload_UnknownTypeRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeStorage{})

	_, err := svc.Upload(context.Background(), uuid.New(), "diploma", "scan.pdf", "application/pdf", strings.NewReader("x"), 1)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestUpload_BadContentTypeRejected(t *testing.T) {
	fs := &fakeStorage{}
	svc := newTestService(newFakeStore(), fs)

	_, err := svc.Upload(context.Background(), uuid.New(), "passport", "run.exe", "application/octet-stream", strings.NewReader("x"), 1)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if fs.uploads != 0 {
		t.Errorf("uploads = %d, want 0", fs.uploads)
	}
}

func TestUpload_ReplacementDeletesOldObject(t *testing.T) {
	store := newFakeStore()
	fs := &fakeStorage{}
	svc := newTestService(store, fs)
	applicantID := uuid.New()

	_, err := svc.Upload(context.Background(), applicantID, "certificate", "cert.jpg", "image/jpeg", strings.NewReader("v1"), 2)
	if err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	firstKey := fs.lastKey

	_, err = svc.Upload(context.Background(), applicantID, "certificate", "cert.jpg", "image/jpeg", strings.NewReader("v2"), 2)
	if err != nil {
		t.Fatalf("second Upload: %v", err)
	}

	if len(fs.deletes) != 1 || fs.deletes[0] != firstKey {
		t.Errorf("deletes = %v, want [%s]", fs.deletes, firstKey)
	}
}

func TestDownloadURL(t *testing.T) {
	store := newFakeStore()
	fs := &fakeStorage{}
	svc := newTestService(store, fs)
	applicantID := uuid.New()

	_, _ = svc.Upload(context.Background(), applicantID, "passport", "scan.pdf", "application/pdf", strings.NewReader("x"), 1)

	resp, err := svc.DownloadURL(context.Background(), applicantID, "passport")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(resp.URL, "?signed") {
		t.Errorf("url = %q", resp.URL)
	}

	_, err = svc.DownloadURL(context.Background(), applicantID, "certificate")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}
