package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Subscription channel
	FieldClientID = "client_id"
	FieldSource   = "source"

	// Combat state
	FieldCategory  = "category"
	FieldDieID     = "die_id"
	FieldPlayer    = "player"
	FieldStatblock = "statblock"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
