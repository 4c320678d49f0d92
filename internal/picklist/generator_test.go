package picklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscout/internal/analysis"
	"gridscout/internal/dataset"
)

func seedRepository(t *testing.T) *dataset.Repository {
	t.Helper()
	repo, err := dataset.NewRepository(t.TempDir())
	require.NoError(t, err)

	ds := &dataset.Dataset{
		EventKey: "2025casj",
		Year:     2025,
		Teams: map[string]*dataset.TeamEntry{
			"frc254": {
				TeamNumber: 254,
				Nickname:   "The Cheesy Poofs",
				Statbotics: &dataset.StatboticsInfo{EPATotal: 92, EPAAuto: 30, EPATeleop: 45, EPAEndgame: 17},
			},
			"frc1678": {
				TeamNumber: 1678,
				Nickname:   "Citrus Circuits",
				Statbotics: &dataset.StatboticsInfo{EPATotal: 88, EPAAuto: 28, EPATeleop: 44, EPAEndgame: 16},
			},
			"frc5940": {
				TeamNumber: 5940,
				Nickname:   "BREAD",
				Statbotics: &dataset.StatboticsInfo{EPATotal: 60, EPAAuto: 15, EPATeleop: 35, EPAEndgame: 10},
			},
		},
	}
	require.NoError(t, repo.Save(ds))
	return repo
}

func generatorRequest() Request {
	return Request{
		EventKey: "2025casj",
		Position: PositionFirst,
		Priorities: []analysis.Priority{
			{ID: "epa_total", Weight: 1},
		},
	}
}

func newTestGenerator(t *testing.T, client *fakeLLM) *Generator {
	t.Helper()
	return NewGenerator(seedRepository(t), NewGPTService(client), NewMemoryCache(time.Hour), GeneratorConfig{})
}

func TestGeneratorFullPicklist(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"p":[[254,95,"best overall"],[1678,88,"strong auto"],[5940,60,"solid"]],"s":"ok"}`,
	}}
	gen := newTestGenerator(t, client)

	result, err := gen.Generate(context.Background(), generatorRequest())
	require.NoError(t, err)
	require.Len(t, result.Picklist, 3)
	assert.Equal(t, 254, result.Picklist[0].TeamNumber)
	assert.Equal(t, "The Cheesy Poofs", result.Picklist[0].Nickname)
	assert.Equal(t, 1, result.Batches)
	assert.Empty(t, result.MissingRecovered)
	assert.Equal(t, generatorRequest().CacheKey(), result.CacheKey)
	assert.Equal(t, 1, client.callCount())
}

func TestGeneratorCachesResults(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"p":[[254,95,""],[1678,88,""],[5940,60,""]],"s":"ok"}`,
	}}
	gen := newTestGenerator(t, client)
	ctx := context.Background()

	first, err := gen.Generate(ctx, generatorRequest())
	require.NoError(t, err)

	second, err := gen.Generate(ctx, generatorRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.callCount())

	gen.ClearCache(ctx)
	_, err = gen.Generate(ctx, generatorRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount())
}

func TestGeneratorRecoversMissingTeams(t *testing.T) {
	client := &fakeLLM{respond: func(call int, _, _ string) (string, error) {
		if call == 0 {
			// First pass drops 5940.
			return `{"p":[[254,95,""],[1678,88,""]],"s":"ok"}`, nil
		}
		return `{"p":[[5940,40,"recovered"]],"s":"ok"}`, nil
	}}
	gen := newTestGenerator(t, client)

	result, err := gen.Generate(context.Background(), generatorRequest())
	require.NoError(t, err)
	require.Len(t, result.Picklist, 3)
	assert.Equal(t, []int{5940}, result.MissingRecovered)
	assert.Equal(t, 5940, result.Picklist[2].TeamNumber)
	assert.Equal(t, 40.0, result.Picklist[2].Score)
	assert.Equal(t, 2, client.callCount())
}

func TestGeneratorAppendsUnrankedWhenRecoveryFails(t *testing.T) {
	client := &fakeLLM{respond: func(call int, _, _ string) (string, error) {
		if call == 0 {
			return `{"p":[[254,95,""],[1678,88,""]],"s":"ok"}`, nil
		}
		// Recovery replies never parse.
		return `{"p":[],"s":"ok"}`, nil
	}}
	gen := newTestGenerator(t, client)

	result, err := gen.Generate(context.Background(), generatorRequest())
	require.NoError(t, err)
	require.Len(t, result.Picklist, 3)
	assert.Empty(t, result.MissingRecovered)

	last := result.Picklist[2]
	assert.Equal(t, 5940, last.TeamNumber)
	assert.Equal(t, 0.0, last.Score)
	assert.Equal(t, "not ranked", last.Reason)
}

func TestGeneratorExcludesTeams(t *testing.T) {
	client := &fakeLLM{respond: func(_ int, _, user string) (string, error) {
		assert.NotContains(t, user, "\n1678|")
		assert.NotContains(t, user, "\n5940|")
		return `{"p":[[254,95,""]],"s":"ok"}`, nil
	}}
	gen := newTestGenerator(t, client)

	req := generatorRequest()
	req.ExcludeTeams = []int{1678}
	req.YourTeam = 5940

	result, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Picklist, 1)
	assert.Equal(t, 254, result.Picklist[0].TeamNumber)
}

func TestGeneratorNoCandidates(t *testing.T) {
	gen := newTestGenerator(t, &fakeLLM{})

	req := generatorRequest()
	req.ExcludeTeams = []int{254, 1678, 5940}

	_, err := gen.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate teams")
}

func TestGeneratorValidatesRequest(t *testing.T) {
	gen := newTestGenerator(t, &fakeLLM{})

	req := generatorRequest()
	req.Position = "fourth"
	_, err := gen.Generate(context.Background(), req)
	assert.Error(t, err)

	_, err = gen.StartJob(req)
	assert.Error(t, err)
}

func TestGeneratorUnknownEvent(t *testing.T) {
	gen := newTestGenerator(t, &fakeLLM{})

	req := generatorRequest()
	req.EventKey = "2025nope"
	_, err := gen.Generate(context.Background(), req)
	require.ErrorIs(t, err, dataset.ErrNoDataset)
}

func TestGeneratorAsyncJob(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"p":[[254,95,""],[1678,88,""],[5940,60,""]],"s":"ok"}`,
	}}
	gen := newTestGenerator(t, client)

	jobID, err := gen.StartJob(generatorRequest())
	require.NoError(t, err)
	assert.Equal(t, generatorRequest().CacheKey(), jobID)

	require.Eventually(t, func() bool {
		job, ok := gen.JobStatus(jobID)
		return ok && job.Status == JobComplete
	}, 3*time.Second, 10*time.Millisecond)

	job, ok := gen.JobStatus(jobID)
	require.True(t, ok)
	assert.Equal(t, 100, job.Percent)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Picklist, 3)

	// A finished job restarted with a warm cache completes immediately.
	again, err := gen.StartJob(generatorRequest())
	require.NoError(t, err)
	assert.Equal(t, jobID, again)
	require.Eventually(t, func() bool {
		job, ok := gen.JobStatus(again)
		return ok && job.Status == JobComplete
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, client.callCount())
}

func TestGeneratorDedupesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	client := &fakeLLM{respond: func(_ int, _, _ string) (string, error) {
		<-release
		return `{"p":[[254,95,""],[1678,88,""],[5940,60,""]],"s":"ok"}`, nil
	}}
	gen := newTestGenerator(t, client)

	done := make(chan *Result, 1)
	go func() {
		result, err := gen.Generate(context.Background(), generatorRequest())
		assert.NoError(t, err)
		done <- result
	}()

	// Wait for the sync call to reach the model before starting the job.
	require.Eventually(t, func() bool {
		return client.callCount() == 1
	}, 3*time.Second, 5*time.Millisecond)

	jobID, err := gen.StartJob(generatorRequest())
	require.NoError(t, err)

	close(release)
	result := <-done

	require.Eventually(t, func() bool {
		job, ok := gen.JobStatus(jobID)
		return ok && job.Status == JobComplete
	}, 3*time.Second, 10*time.Millisecond)

	job, _ := gen.JobStatus(jobID)
	require.NotNil(t, job.Result)
	assert.Equal(t, result.CacheKey, job.Result.CacheKey)

	// One logical request, one upstream run.
	assert.Equal(t, 1, client.callCount())
}

func TestGeneratorAsyncJobFailure(t *testing.T) {
	gen := newTestGenerator(t, &fakeLLM{})

	req := generatorRequest()
	req.EventKey = "2025nope"
	req.Priorities = []analysis.Priority{{ID: "epa_total", Weight: 1}}

	jobID, err := gen.StartJob(req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, ok := gen.JobStatus(jobID)
		return ok && job.Status == JobFailed
	}, 3*time.Second, 10*time.Millisecond)

	job, _ := gen.JobStatus(jobID)
	assert.NotEmpty(t, job.Error)
}
