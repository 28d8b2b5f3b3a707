package orchestrator_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vzahanych/weather-ph/internal/orchestrator"
	"go.uber.org/zap/zaptest"
)

func TestLooper_RunsInOrder(t *testing.T) {
	l := orchestrator.NewLooper(zaptest.NewLogger(t))

	var got []int
	for i := 0; i < 10; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLooper_SurvivesPanic(t *testing.T) {
	l := orchestrator.NewLooper(zaptest.NewLogger(t))

	var ran atomic.Bool
	l.Post(func() { panic("boom") })
	l.Post(func() { ran.Store(true) })
	l.Close()

	assert.True(t, ran.Load())
}

func TestLooper_PostAfterClose(t *testing.T) {
	l := orchestrator.NewLooper(zaptest.NewLogger(t))
	l.Close()
	l.Close()

	ran := false
	l.Post(func() { ran = true })
	assert.True(t, ran)
}
