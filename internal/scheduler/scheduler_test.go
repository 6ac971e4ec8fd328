package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

type stubRunner struct {
	req      app.Request
	deadline bool
	err      error
}

func (r *stubRunner) Run(ctx context.Context, req app.Request) (*core.ScanResult, error) {
	r.req = req
	_, r.deadline = ctx.Deadline()
	if r.err != nil {
		return nil, r.err
	}
	return &core.ScanResult{ID: "x"}, nil
}

type stubMorning struct {
	trigger  core.Trigger
	deadline bool
	err      error
}

func (m *stubMorning) RunMorning(ctx context.Context, trigger core.Trigger) (*core.MorningList, error) {
	m.trigger = trigger
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	return &core.MorningList{ScanID: "x"}, nil
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(time.UTC)
	err := s.AddJob("61 * * * *", &countingJob{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(time.UTC)
	job := &countingJob{err: errors.New("boom")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.False(t, s.Next().IsZero())
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_NextUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := New(ny)
	require.NoError(t, s.AddJob(DefaultSchedule, &countingJob{}))
	s.Start()
	defer s.Stop()

	next := s.Next().In(ny)
	assert.Equal(t, 18, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())
}

func TestScanJob(t *testing.T) {
	r := &stubRunner{}
	j := NewScanJob(r, time.Minute)

	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, core.TriggerSchedule, r.req.Trigger)
	assert.True(t, r.deadline)
	assert.Empty(t, r.req.Symbols)
	assert.True(t, r.req.Date.IsZero())
}

func TestScanJob_SkipsWhenBusy(t *testing.T) {
	r := &stubRunner{err: core.ErrScanInProgress}
	assert.NoError(t, NewScanJob(r, 0).Run(context.Background()))

	r.err = core.WrapError(core.ErrProviderUnreachable, errors.New("down"))
	assert.ErrorIs(t, NewScanJob(r, 0).Run(context.Background()), core.ErrProviderUnreachable)
}

func TestMorningJob(t *testing.T) {
	m := &stubMorning{}
	j := NewMorningJob(m, time.Minute)

	assert.Equal(t, "morning-check", j.Name())
	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, core.TriggerSchedule, m.trigger)
	assert.True(t, m.deadline)
}

func TestMorningJob_Skips(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"busy", core.ErrScanInProgress, nil},
		{"no scan yet", core.WrapError(core.ErrNoScan, errors.New("no evening scan")), nil},
		{"outage", core.WrapError(core.ErrProviderUnreachable, errors.New("down")), core.ErrProviderUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMorningJob(&stubMorning{err: tt.err}, 0).Run(context.Background())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScheduler_MorningSchedule(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := New(ny)
	require.NoError(t, s.AddJob(DefaultMorningSchedule, NewMorningJob(&stubMorning{}, 0)))
	s.Start()
	defer s.Stop()

	next := s.Next().In(ny)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())
}
