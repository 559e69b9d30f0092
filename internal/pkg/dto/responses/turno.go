package responses

import "time"

type TurnoDocument struct {
	ID          string    `json:"id"`
	TurnoID     string    `json:"turno_id"`
	Category    string    `json:"category"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}

type Availability struct {
	From         time.Time `json:"from"`
	NextFreeSlot time.Time `json:"next_free_slot"`
}
