package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldFile       = "file"
	FieldLine       = "line"
	FieldReason     = "reason"
	FieldColumn     = "column"
	FieldReportType = "report_type"
	FieldPeriod     = "period"
	FieldTab        = "tab"
	FieldRows       = "rows"
	FieldRecords    = "records"
	FieldChannels   = "channels"
	FieldTotal      = "revenue_total"
	FieldRunID      = "run_id"
	FieldDuration   = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentEngine   = "engine"
	ComponentSource   = "source"
	ComponentSink     = "sink"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentBackend  = "backend"
	ComponentClassify = "classify"
)

// Operations defines standard operation names
const (
	OpList     = "list"
	OpClassify = "classify"
	OpExtract  = "extract"
	OpPublish  = "publish"
	OpPersist  = "persist"
	OpNotify   = "notify"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithFile(name string) LogFields {
	f[FieldFile] = name
	return f
}

// WithReport adds the classified report type and period label.
func (f LogFields) WithReport(reportType, period string) LogFields {
	f[FieldReportType] = reportType
	f[FieldPeriod] = period
	return f
}

func (f LogFields) WithPeriod(period string) LogFields {
	f[FieldPeriod] = period
	return f
}

// ToSlice converts LogFields to slog args, sorted by key.
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
