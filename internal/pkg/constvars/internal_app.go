package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_ACTOR_ID_KEY             ContextKey = "actor_id"
	CONTEXT_ACTOR_ROLE_KEY           ContextKey = "actor_role"
)

const (
	REQUEST_ID_PREFIX = "FRMC_SVC_"
)

const (
	AppPaginationUrlFormat = "%s?page=%d&page_size=%d"
	DateLayout             = "2006-01-02"
)

const (
	RoleAdmin        = "admin"
	RolePharmacist   = "farmaceutico"
	RolePatient      = "paciente"
	StorageDriverSQL = "postgres"
	StorageDriverMem = "memory"
)

const (
	ResourceTurnos       = "turnos"
	ResourceBlockedDates = "blocked-dates"
	ResourceAvailability = "availability"
)

const (
	LockKeyTurnoQuotaPrefix   = "turno:quota:"
	LockKeyTurnoSlotDayPrefix = "turno:slotday:"
	LockKeyTurnoStockPrefix   = "turno:stock:"
	LockKeyTurnoIDPrefix      = "turno:id:"
)
