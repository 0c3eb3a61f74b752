// Package api is the session-aware backend client of one account kind.
//
// Every call carries the shared cookie jar. A 401 on an authenticated call
// asks the account's refresh controller for one refresh; if it succeeds the
// request is sent exactly once more, otherwise the session is logged out
// and the call fails with a SESSION_EXPIRED error. Public calls (login,
// logout, registration and the refresh itself) bypass that handling.
package api
