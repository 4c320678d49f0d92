package picklist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.Get("missing")
	assert.False(t, ok)

	tr.Start("job")
	job, ok := tr.Get("job")
	require.True(t, ok)
	assert.Equal(t, JobQueued, job.Status)

	tr.Update("job", 40, "ranking")
	tr.Update("job", 20, "stale")
	job, _ = tr.Get("job")
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, 40, job.Percent, "percent never moves backward")

	tr.Complete("job", &Result{EventKey: "2025casj"})
	job, _ = tr.Get("job")
	assert.Equal(t, JobComplete, job.Status)
	assert.Equal(t, 100, job.Percent)
	require.NotNil(t, job.Result)
}

func TestTrackerStartIfInactive(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.StartIfInactive("job"))
	assert.False(t, tr.StartIfInactive("job"), "queued job blocks a restart")

	tr.Update("job", 10, "running")
	assert.False(t, tr.StartIfInactive("job"), "running job blocks a restart")

	tr.Complete("job", &Result{})
	assert.True(t, tr.StartIfInactive("job"), "finished job may be restarted")

	tr.Fail("job", errors.New("boom"))
	assert.True(t, tr.StartIfInactive("job"), "failed job may be restarted")
}
