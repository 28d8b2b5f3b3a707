// Package location models the device location collaborator: a one-shot,
// asynchronous "current position" request and the settings that gate it.
package location

import (
	"context"
	"errors"
)

// Accuracy is the requested precision tier for a fix.
type Accuracy int

const (
	AccuracyHigh Accuracy = iota
	AccuracyBalanced
	AccuracyLow
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyHigh:
		return "high"
	case AccuracyBalanced:
		return "balanced"
	case AccuracyLow:
		return "low"
	default:
		return "unknown"
	}
}

// ErrUnavailable is returned when the provider could not obtain a fix at all.
var ErrUnavailable = errors.New("location unavailable")

type Fix struct {
	Latitude  float64
	Longitude float64
	Source    string
}

// Result is the single value a provider delivers. A nil Fix with a nil Err
// means the provider answered but had no position.
type Result struct {
	Fix *Fix
	Err error
}

// Provider requests one position. The returned channel is buffered and
// yields exactly one Result, so callers may abandon it without leaking the
// sender.
type Provider interface {
	CurrentLocation(ctx context.Context, accuracy Accuracy) <-chan Result
}

// Settings reports whether the location service may be used.
type Settings interface {
	LocationEnabled() bool
	PermissionGranted() bool
}

// StaticSettings is a fixed Settings value, usually read from config.
type StaticSettings struct {
	Enabled bool
	Granted bool
}

func (s StaticSettings) LocationEnabled() bool   { return s.Enabled }
func (s StaticSettings) PermissionGranted() bool { return s.Granted }

func deliver(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}
