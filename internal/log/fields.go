package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldAccountID   = "account_id"
	FieldAccountKind = "account_kind"
	FieldAmountCents = "amount_cents"
	FieldRows        = "rows"
	FieldImported    = "imported"
	FieldSkipped     = "skipped"
	FieldFilename    = "filename"
	FieldSheetsRef   = "sheets_ref"
	FieldRunID       = "run_id"
	FieldDuration    = "duration_ms"
	FieldEventID     = "event_id"
	FieldQueue       = "queue"
	FieldTab         = "tab"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentKafka   = "kafka"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpAppend   = "append"
	OpBuild    = "build"
	OpExport   = "export"
	OpImport   = "import"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithAccount adds account id and kind.
func (f LogFields) WithAccount(id, kind string) LogFields {
	f[FieldAccountID] = id
	if kind != "" {
		f[FieldAccountKind] = kind
	}
	return f
}

// WithImport adds the counters of an import run.
func (f LogFields) WithImport(imported, skipped int) LogFields {
	f[FieldImported] = imported
	f[FieldSkipped] = skipped
	return f
}

// ToSlice converts LogFields to key/value pairs for slog, sorted by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
