package utils

import (
	"farmacia-service/internal/pkg/dto/requests"
	"strings"
	"unicode"
)

// SanitizeText trims surrounding whitespace and drops control characters,
// keeping line breaks.
func SanitizeText(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(cleaned)
}

// NormalizeDocumentIdentification strips separators and uppercases an
// identification number so that formatting differences hash identically.
func NormalizeDocumentIdentification(input string) string {
	var b strings.Builder
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func SanitizeCreateTurnoRequest(input *requests.CreateTurno) {
	input.RequesterID = strings.TrimSpace(input.RequesterID)
	input.DocumentIdentification = strings.TrimSpace(input.DocumentIdentification)
	input.Notes = SanitizeText(input.Notes)
	for i := range input.LineItems {
		input.LineItems[i].Kind = strings.ToLower(strings.TrimSpace(input.LineItems[i].Kind))
		input.LineItems[i].CatalogItemID = strings.TrimSpace(input.LineItems[i].CatalogItemID)
	}
}

func SanitizeApproveTurnoRequest(input *requests.ApproveTurno) {
	input.Comments = SanitizeText(input.Comments)
	for i := range input.ApprovedLineItems {
		input.ApprovedLineItems[i].LineItemID = strings.TrimSpace(input.ApprovedLineItems[i].LineItemID)
	}
}

func SanitizeRejectTurnoRequest(input *requests.RejectTurno) {
	input.Reason = SanitizeText(input.Reason)
}

func SanitizeAddBlockedDateRequest(input *requests.AddBlockedDate) {
	input.Date = strings.TrimSpace(input.Date)
	input.Reason = SanitizeText(input.Reason)
}
