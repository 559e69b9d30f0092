package utils

import (
	"farmacia-service/internal/pkg/dto/requests"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCreateTurnoRequest(t *testing.T) {
	t.Run("Trims fields and lowercases kinds", func(t *testing.T) {
		request := &requests.CreateTurno{
			RequesterID:            "  user-1 ",
			DocumentIdentification: "  12.345.678 ",
			Notes:                  "  please call\x00 first  ",
			LineItems: []requests.TurnoLineItem{
				{Kind: " Medicamento ", CatalogItemID: " paracetamol ", Quantity: 1},
			},
		}

		SanitizeCreateTurnoRequest(request)

		assert.Equal(t, "user-1", request.RequesterID)
		assert.Equal(t, "12.345.678", request.DocumentIdentification)
		assert.Equal(t, "please call first", request.Notes)
		assert.Equal(t, "medicamento", request.LineItems[0].Kind)
		assert.Equal(t, "paracetamol", request.LineItems[0].CatalogItemID)
	})

	t.Run("Empty line items stay empty", func(t *testing.T) {
		request := &requests.CreateTurno{}
		SanitizeCreateTurnoRequest(request)
		assert.Empty(t, request.LineItems)
	})
}

func TestSanitizeRejectTurnoRequest(t *testing.T) {
	request := &requests.RejectTurno{Reason: " \t sin stock \n "}
	SanitizeRejectTurnoRequest(request)
	assert.Equal(t, "sin stock", request.Reason)
}

func TestNormalizeDocumentIdentification(t *testing.T) {
	assert.Equal(t, "12345678", NormalizeDocumentIdentification("12.345.678"))
	assert.Equal(t, "AB12345", NormalizeDocumentIdentification(" ab-123 45 "))
	assert.Equal(t, "", NormalizeDocumentIdentification(" - . "))
}
