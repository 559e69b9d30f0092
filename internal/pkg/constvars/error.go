package constvars

// Validation messages for request payloads, map it with respective tag field
var CustomValidationErrorMessages = map[string]string{
	"required":  "is required",
	"min":       "must be at least %s",
	"max":       "maximum at %s",
	"gte":       "must be greater than or equal to %s",
	"lte":       "must be less than or equal to %s",
	"oneof":     "must be one of: %s",
	"uuid4":     "must be a valid UUID",
	"dive":      "is invalid",
	"datetime":  "must be a date formatted as YYYY-MM-DD",
	"not_blank": "must not be blank",
}

// TagsWithParams lists validation tags whose message embeds the tag parameter.
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"gte":   true,
	"lte":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientNotLoggedIn                   = "your session ended, please login again"
	ErrClientResourceNotFound              = "the requested resource was not found"

	ErrClientTurnoQuotaExceeded      = "you have reached the maximum number of turnos for this month"
	ErrClientTurnoNoCapacity         = "there are no pickup slots available in the scheduling horizon"
	ErrClientTurnoInsufficientStock  = "there is not enough stock to approve the requested quantities"
	ErrClientTurnoInvalidTransition  = "the turno can't be changed from its current state"
	ErrClientTurnoConcurrentUpdate   = "the turno is being modified by another request, please retry"
	ErrClientBlockedDateAlreadyExist = "the date is already blocked"
	ErrClientBlockedDateNotFound     = "the date is not blocked"
	ErrClientTurnoNotFound           = "turno not found"
	ErrClientInvalidFileUpload       = "the uploaded file is invalid"
)

// Error messages for developers
const (
	ErrDevInvalidInput          = "invalid input"
	ErrDevCannotParseJSON       = "cannot parse JSON"
	ErrDevCannotMarshalJSON     = "cannot marshal JSON"
	ErrDevValidationFailed      = "validation failed"
	ErrDevInvalidRequestPayload = "invalid request payload"
	ErrDevMissingRequiredFields = "missing required fields"
	ErrDevMissingRequestID      = "request id missing from context"
	ErrDevURLParamValidation    = "url param %s validation failed"
	ErrDevCannotParseDate       = "cannot parse date"
	ErrDevCannotParseMultipart  = "cannot parse multipart form"

	// Authentication messages
	ErrDevAuthSigningMethod         = "unexpected signing method"
	ErrDevAuthTokenInvalid          = "invalid token"
	ErrDevAuthTokenMissing          = "token missing"
	ErrDevAuthTokenInvalidOrExpired = "token invalid or expired"
	ErrDevAuthPermissionDenied      = "permission denied"

	// Turno workflow messages
	ErrDevTurnoQuotaExceeded        = "requester monthly turno quota exceeded"
	ErrDevTurnoNoCapacityFound      = "no free slot found within the scheduling horizon"
	ErrDevTurnoInsufficientStock    = "insufficient stock for %s item %s: available %d, required %d"
	ErrDevTurnoInvalidTransition    = "invalid turno transition from %s to %s"
	ErrDevTurnoConcurrencyConflict  = "concurrent modification detected on key %s"
	ErrDevTurnoNotFound             = "turno %s not found"
	ErrDevTurnoForbidden            = "actor %s is not allowed to modify turno %s"
	ErrDevTurnoSlotAlreadyPassed    = "turno %s slot already passed"
	ErrDevBlockedDateDuplicate      = "date %s already blocked"
	ErrDevBlockedDateNotFound       = "date %s is not blocked"
	ErrDevDocumentHashFailed        = "failed to hash identification document"
	ErrDevCatalogItemNotFound       = "%s item %s not found"
	ErrDevUnknownLineItem           = "line item %s does not belong to turno %s"
	ErrDevApprovedQuantityOutOfSpan = "approved quantity %d for line item %s must be between 0 and %d"

	// Database messages
	ErrDevDBFailedToInsertData       = "failed to insert data into database"
	ErrDevDBFailedToUpdateData       = "failed to update data into database"
	ErrDevDBFailedToFindData         = "failed to find data on database"
	ErrDevDBFailedToDeleteData       = "failed to delete data from database"
	ErrDevDBFailedToIterateDataset   = "failed to iterate dataset from database"
	ErrDevDBFailedToBeginTransaction = "failed to begin database transaction"
	ErrDevDBFailedToCommit           = "failed to commit database transaction"
	ErrDevDBFailedToInsertDocument   = "failed to insert document into database"
	ErrDevDBFailedToFindDocument     = "failed when do find document on database"
	ErrDevDBFailedToIterateDocuments = "failed to iterate documents from database"

	// Redis messages
	ErrDevRedisGetNoData      = "failed to get data from redis with key %s"
	ErrDevRedisSetData        = "failed to set data into redis"
	ErrDevRedisDeleteData     = "failed to delete data from redis"
	ErrDevRedisExpireData     = "failed to set expiration on redis key"
	ErrDevRedisUnlock         = "failed to unlock redis lock"
	ErrDevRedisLockNotAcquire = "lock not acquired"
	ErrDevLockNotOwned        = "lock %s is not owned by this holder"

	// Broker and object storage messages
	ErrDevRabbitMQPublishMessage    = "failed to publish message into queue %s"
	ErrDevMinioFailedToCreateObject = "failed to create object on bucket %s"
	ErrDevMinioFailedToPresignURL   = "failed to presign object url on bucket %s"
	ErrDevMinioFailedToRemoveObject = "failed to remove object on bucket %s"

	// Server messages
	ErrDevServerProcess          = "failed to process request"
	ErrDevServerDeadlineExceeded = "deadline exceeded"
)
