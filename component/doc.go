// Package component defines the lifecycle interface shared by the
// long-running parts of sessionkit (refresh controllers, storage) and a
// registry that starts them in order and stops them in reverse.
package component
