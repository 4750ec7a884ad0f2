package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamestore-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct {
	stats map[string]interface{}
	err   error
}

func (s stubStats) Ping(context.Context) error { return s.err }
func (s stubStats) GetStats(context.Context) (map[string]interface{}, error) {
	return s.stats, s.err
}

type stubSessions int64

func (n stubSessions) Count(context.Context) (int64, error) { return int64(n), nil }

func TestStatsReporterRunNow(t *testing.T) {
	f := newFixture(t)
	f.buyer(t, "alice")

	r := NewStatsReporter(f.store, stubSessions(3), time.Hour, logger.Nop())
	require.NoError(t, r.RunNow(context.Background()))
}

func TestStatsReporterPropagatesErrors(t *testing.T) {
	r := NewStatsReporter(stubStats{err: errors.New("closed")}, nil, 0, logger.Nop())
	assert.Error(t, r.RunNow(context.Background()))
}

func TestStatsReporterStartStop(t *testing.T) {
	r := NewStatsReporter(stubStats{stats: map[string]interface{}{"games": int64(2)}}, stubSessions(1), 10*time.Millisecond, logger.Nop())
	r.Start()
	r.Start()
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	r.Stop()
	assert.False(t, r.isRunning)
}
