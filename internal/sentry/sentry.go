// Package sentry wraps crash reporting. Without SENTRY_DSN in the
// environment every function is a no-op, so the default build phones
// nothing home.
package sentry

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// Init initializes the Sentry SDK. Returns a cleanup function to defer.
func Init(version string) func() {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          "log2src@" + version,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return func() {}
	}
	return func() {
		sentry.Flush(flushTimeout)
	}
}

// CaptureError reports an error if Sentry is initialized. Safe to call
// unconditionally.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// RecoverAndPanic recovers a panic, reports it, then re-panics. Defer at
// top-level entry points before Init's cleanup so the flush still runs.
func RecoverAndPanic() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(flushTimeout)
		panic(r)
	}
}
