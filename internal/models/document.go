// internal/models/document.go
package models

import "time"

// DocumentRef is a metadata record for a file uploaded during the documents
// step. The bytes live in the external file store; only the reference is
// persisted here, keyed by application id.
type DocumentRef struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	FileName      string    `json:"fileName"`
	ContentType   string    `json:"contentType"`
	SizeBytes     int64     `json:"sizeBytes"`
	StorageKey    string    `json:"storageKey"`
	UploadedBy    string    `json:"uploadedBy"`
	UploadedAt    time.Time `json:"uploadedAt"`
}
