// Package version reports the library build and the User-Agent sent to the
// backend.
//
// Version and commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/sessionkit/version.Version=1.4.0"
package version
