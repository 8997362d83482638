// Package transport defines the documents API response shapes.
package transport

type DocumentResponse struct {
	Type        string `json:"type"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	Link        string `json:"link"`
	UploadedAt  string `json:"uploadedAt"`
}

type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}
