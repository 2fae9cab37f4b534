package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldEntity       = "entity"
	FieldExpenseID    = "expense_id"
	FieldCommitmentID = "commitment_id"
	FieldPaymentID    = "payment_id"
	FieldAmount       = "amount"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAPI      = "api"
	ComponentStore    = "store"
	ComponentSession  = "session"
	ComponentSnapshot = "snapshot"
	ComponentEvents   = "events"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpRefresh  = "refresh"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
