package logger

// Field keys shared by every package so log queries stay uniform.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldAccount   = "account"
	FieldUserID    = "user_id"
	FieldKey       = "key"
	FieldStatus    = "status"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating key-value pairs. Non-string
// keys and a trailing key without a value are dropped.
//
//	log.Warn("rollback", logger.Fields(logger.FieldKey, key, "visited", v))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
