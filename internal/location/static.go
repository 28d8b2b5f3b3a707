package location

import (
	"context"
)

// StaticProvider always answers with the same fix, or with no fix when
// constructed with nil.
type StaticProvider struct {
	fix *Fix
}

func NewStaticProvider(fix *Fix) *StaticProvider {
	return &StaticProvider{fix: fix}
}

func (p *StaticProvider) CurrentLocation(_ context.Context, _ Accuracy) <-chan Result {
	if p.fix == nil {
		return deliver(Result{})
	}
	fix := *p.fix
	return deliver(Result{Fix: &fix})
}
