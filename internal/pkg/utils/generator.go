package utils

import (
	"farmacia-service/internal/pkg/constvars"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + uuid.NewString()
}

// GenerateDocumentObjectName builds the object key of an uploaded turno document.
func GenerateDocumentObjectName(turnoID, fileName string, uploadedAt time.Time) string {
	extension := strings.ToLower(filepath.Ext(fileName))
	timestamp := uploadedAt.UTC().Format("20060102_150405")
	return fmt.Sprintf("turnos/%s/%s_%s%s", turnoID, timestamp, uuid.NewString(), extension)
}
