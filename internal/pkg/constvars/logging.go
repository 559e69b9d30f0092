package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingDataKey           = "data"
	LoggingQueryParamsKey    = "query_params"
	LoggingResponseKey       = "response"
	LoggingRequestKey        = "request"
	LoggingResponseLengthKey = "response_length"

	LoggingMethodKey     = "method"
	LoggingEndpointKey   = "endpoint"
	LoggingRemoteAddrKey = "remote_addr"
	LoggingUserAgentKey  = "user_agent"
	LoggingQueryKey      = "query"
	LoggingStatusCodeKey = "status_code"
	LoggingDurationKey   = "duration"
	LoggingSuccessKey    = "success"

	LoggingTurnoIDKey          = "turno_id"
	LoggingTurnoStatusKey      = "turno_status"
	LoggingTurnoOldStatusKey   = "turno_old_status"
	LoggingTurnoNewStatusKey   = "turno_new_status"
	LoggingTurnoCountKey       = "turno_count"
	LoggingRequesterIDKey      = "requester_id"
	LoggingReviewerIDKey       = "reviewer_id"
	LoggingActorIDKey          = "actor_id"
	LoggingActorRoleKey        = "actor_role"
	LoggingLineItemCountKey    = "line_item_count"
	LoggingCatalogItemIDKey    = "catalog_item_id"
	LoggingCatalogItemKindKey  = "catalog_item_kind"
	LoggingQuantityKey         = "quantity"
	LoggingSlotKey             = "slot"
	LoggingSlotDayKey          = "slot_day"
	LoggingDailyNumberKey      = "daily_number"
	LoggingBlockedDateKey      = "blocked_date"
	LoggingBlockedDateCountKey = "blocked_date_count"
	LoggingQuotaUsedKey        = "quota_used"
	LoggingQuotaLimitKey       = "quota_limit"
	LoggingDocumentIDKey       = "document_id"
	LoggingDocumentCountKey    = "document_count"
	LoggingObjectNameKey       = "object_name"
	LoggingBucketNameKey       = "bucket_name"
	LoggingQueueNameKey        = "queue_name"
	LoggingEventTypeKey        = "event_type"
	LoggingAttemptKey          = "attempt"

	LoggingRedisKey              = "redis_key"
	LoggingLockValueKey          = "lock_value"
	LoggingLockKeysKey           = "lock_keys"
	LoggingLockExpirationTimeKey = "lock_expiration_time"
	LoggingLockStoredValueKey    = "lock_stored_value"
	LoggingLockExpectedValueKey  = "lock_expected_value"
)
