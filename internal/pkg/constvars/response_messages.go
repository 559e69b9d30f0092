package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Turno-related messages
	CreateTurnoSuccessMessage       = "turno requested successfully"
	ApproveTurnoSuccessMessage      = "turno approved successfully"
	RejectTurnoSuccessMessage       = "turno rejected successfully"
	CancelTurnoSuccessMessage       = "turno cancelled successfully"
	CompleteTurnoSuccessMessage     = "turno completed successfully"
	GetTurnoSuccessMessage          = "get turno successfully"
	GetTurnosSuccessMessage         = "get turnos successfully"
	SetTicketSuccessMessage         = "turno ticket reference saved successfully"
	AttachDocumentSuccessMessage    = "turno document uploaded successfully"
	GetDocumentsSuccessMessage      = "get turno documents successfully"
	GetTurnoHistorySuccessMessage   = "get turno history successfully"
	GetQuotaSuccessMessage          = "get turno quota successfully"
	GetAvailabilitySuccessMessage   = "get availability successfully"
	GetCapacitySuccessMessage       = "get slot capacity successfully"
	GetBlockedDatesSuccessMessage   = "get blocked dates successfully"
	AddBlockedDateSuccessMessage    = "date blocked successfully"
	RemoveBlockedDateSuccessMessage = "date unblocked successfully"
)
