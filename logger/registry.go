package logger

import "sync"

// components caches loggers handed out by Get. The cache is dropped whenever
// the global logger changes so stale writers are never reused.
var components sync.Map

// Get returns the global logger tagged with a component name. Repeated calls
// for the same name return the same instance until the global logger changes.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	l, _ := components.LoadOrStore(name, GetGlobalLogger().WithComponent(name))
	return l.(*Logger)
}

func resetComponents() {
	components.Clear()
}
