// Package logger provides structured logging for sessionkit using zerolog.
//
// Loggers write JSON or console lines and carry component and account tags.
// Levels can be overridden per component:
//
//	logging:
//	  level: "warn"
//	  format: "json"
//	  components:
//	    refresh: "debug"
//
// A nil *Logger falls back to the global logger, so optional logger fields in
// other packages never need a nil check at the call site.
//
//	log := logger.Get("catlist")
//	log.Warn("rollback", logger.Fields(logger.FieldKey, key))
package logger
