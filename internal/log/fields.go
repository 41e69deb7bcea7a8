package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldUserAgent = "user_agent"
	FieldError     = "error"

	FieldDatasetDir = "dataset_dir"
	FieldSnapshot   = "snapshot_id"
	FieldSource     = "source"
	FieldRows       = "rows"
	FieldDropped    = "dropped"
	FieldLevel      = "level"
	FieldState      = "state"
	FieldDistrict   = "district"
	FieldView       = "view"
	FieldSheetRange = "sheet_range"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentDataset = "dataset"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentReport  = "report"
	ComponentCache   = "cache"
)
