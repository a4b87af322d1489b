// Package testutil provides helpers for building instrumentation traces in
// tests.
package testutil
