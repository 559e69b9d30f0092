package models

import "time"

type TurnoDocument struct {
	ID          string    `json:"id"`
	TurnoID     string    `json:"turno_id"`
	Category    string    `json:"category"`
	ObjectName  string    `json:"object_name"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
