package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type countingOptimizer struct {
	calls atomic.Int32
	err   error
}

func (o *countingOptimizer) Optimize(ctx context.Context) error {
	o.calls.Add(1)
	return o.err
}

func TestNewScheduler_ParsesSpecs(t *testing.T) {
	for _, spec := range []string{"@daily", "@every 1h", "30 3 * * *"} {
		_, err := NewScheduler(&countingOptimizer{}, spec)
		assert.NilError(t, err, spec)
	}

	_, err := NewScheduler(&countingOptimizer{}, "every tuesday")
	assert.Assert(t, is.ErrorContains(err, "invalid maintenance schedule"))
}

func TestRunOnce(t *testing.T) {
	db := &countingOptimizer{}
	s, err := NewScheduler(db, "@daily")
	assert.NilError(t, err)

	s.runOnce()
	assert.Equal(t, db.calls.Load(), int32(1))

	db.err = errors.New("disk I/O error")
	s.runOnce()
	assert.Equal(t, db.calls.Load(), int32(2))
}

func TestRunAndStop(t *testing.T) {
	s, err := NewScheduler(&countingOptimizer{}, "@daily")
	assert.NilError(t, err)

	s.Run()
	s.Stop()
	assert.Equal(t, len(s.cron.Entries()), 1)
}
