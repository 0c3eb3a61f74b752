// Package errors defines AppError and the codes sessionkit returns. Transport
// and HTTP failures come from the API layer; stores only log storage errors
// and never return them.
package errors
