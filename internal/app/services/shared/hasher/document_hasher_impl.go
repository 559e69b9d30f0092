package hasher

import (
	"encoding/hex"
	"errors"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"

	"golang.org/x/crypto/blake2b"
)

type documentHasher struct {
	key []byte
}

// NewDocumentHasher returns a keyed BLAKE2b-256 hasher. Keys longer than the
// 64 bytes BLAKE2b accepts are first reduced with an unkeyed BLAKE2b-256.
func NewDocumentHasher(secret string) (contracts.DocumentHasher, error) {
	if secret == "" {
		return nil, errors.New("document hash key must not be empty")
	}
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &documentHasher{key: key}, nil
}

func (h *documentHasher) Hash(documentIdentification string) (string, error) {
	normalized := utils.NormalizeDocumentIdentification(documentIdentification)
	if normalized == "" {
		return "", exceptions.ErrValidation("document identification is required")
	}

	mac, err := blake2b.New256(h.key)
	if err != nil {
		return "", exceptions.ErrHashDocument(err)
	}
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
