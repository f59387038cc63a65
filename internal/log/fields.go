package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldTxID        = "transaction_id"
	FieldBudgetID    = "budget_id"
	FieldChallengeID = "challenge_id"
	FieldCategory    = "category"
	FieldTxType      = "transaction_type"
	FieldAmountCents = "amount_cents"
	FieldRewardXP    = "reward_xp"
	FieldLevel       = "level"
	FieldXP          = "xp"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCompanion = "companion"
	ComponentBackend   = "backend"
)
