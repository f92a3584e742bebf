// internal/workers/draft/attach-draft-document/models.go
package attachdraftdocument

type Input struct {
	ApplicationID string `json:"applicationId"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	SizeBytes     int64  `json:"sizeBytes"`
	StorageKey    string `json:"storageKey"`
	UploadedBy    string `json:"uploadedBy"`
}

type Output struct {
	DocumentID    string `json:"documentId"`
	ApplicationID string `json:"applicationId"`
	FileName      string `json:"fileName"`
	UploadedAt    string `json:"uploadedAt"` // ISO 8601
}
