package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/data/memory"
	"github.com/HatimBenzahra/rework-sub001/internal/evaluation"
	"github.com/HatimBenzahra/rework-sub001/internal/external/salestracker"
	"github.com/HatimBenzahra/rework-sub001/internal/ingest"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/internal/ranking"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

var errBoom = errors.New("boom")

type fakeIngester struct {
	err   error
	runID string
}

func (f *fakeIngester) Run(_ context.Context, runID string, _ time.Time) (*ingest.Result, error) {
	f.runID = runID
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Result{Created: 2, Total: 2}, nil
}

type fakeEvaluator struct {
	err   error
	calls int
}

func (f *fakeEvaluator) EvaluateAll(_ context.Context, _ time.Time) (*evaluation.Summary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &evaluation.Summary{Participants: 3, Awarded: 1}, nil
}

type fakeRanker struct {
	err   error
	calls int
}

func (f *fakeRanker) RecomputeCurrent(_ context.Context, _ time.Time) ([]*ranking.Leaderboard, error) {
	f.calls++
	return []*ranking.Leaderboard{{PeriodType: period.Daily, PeriodKey: "2026-03-20"}}, f.err
}

type fakeComparative struct {
	fail  map[string]error
	calls map[string]string
}

func newFakeComparative() *fakeComparative {
	return &fakeComparative{fail: map[string]error{}, calls: map[string]string{}}
}

func (f *fakeComparative) call(name, key string) (*evaluation.ComparativeResult, error) {
	f.calls[name] = key
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return &evaluation.ComparativeResult{Evaluation: name, PeriodKey: key}, nil
}

func (f *fakeComparative) EvaluateTrophies(_ context.Context, key string, _ time.Time) (*evaluation.ComparativeResult, error) {
	return f.call(StageTrophies, key)
}

func (f *fakeComparative) EvaluatePerformanceRanking(_ context.Context, key string, _ time.Time) (*evaluation.ComparativeResult, error) {
	return f.call(StagePerformance, key)
}

func (f *fakeComparative) EvaluateConversionRanking(_ context.Context, key string, _ time.Time) (*evaluation.ComparativeResult, error) {
	return f.call(StageConversion, key)
}

func (f *fakeComparative) EvaluateTransformationRanking(_ context.Context, key string, _ time.Time) (*evaluation.ComparativeResult, error) {
	return f.call(StageTransformation, key)
}

func newOrchestrator(in *fakeIngester, ev *fakeEvaluator, cmp *fakeComparative, rk *fakeRanker) *Orchestrator {
	return NewOrchestrator(in, ev, cmp, rk, Options{Location: time.UTC, ConfigHash: "abc"}, logger.Nop())
}

var now = time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC)

func TestRunDaily_AllStages(t *testing.T) {
	in := &fakeIngester{}
	o := newOrchestrator(in, &fakeEvaluator{}, newFakeComparative(), &fakeRanker{})

	res, err := o.RunDaily(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{StageIngest, StageEvaluate, StageRank}, res.CompletedStages)
	assert.Nil(t, res.StageErrors)
	assert.Equal(t, 2, res.Ingest.Created)
	assert.Equal(t, 1, res.Evaluation.Awarded)
	assert.Len(t, res.Ranking, 1)

	_, perr := uuid.Parse(res.RunID)
	assert.NoError(t, perr)
	assert.Equal(t, res.RunID, in.runID, "ingest receives the run id for archiving")
}

func TestRunDaily_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		ingestErr error
		evalErr   error
		rankErr   error
		completed []string
		failed    []string
	}{
		{
			name:      "ingest failure continues on stored data",
			ingestErr: errBoom,
			completed: []string{StageEvaluate, StageRank},
			failed:    []string{StageIngest},
		},
		{
			name:      "evaluation failure still ranks",
			evalErr:   errBoom,
			completed: []string{StageIngest, StageRank},
			failed:    []string{StageEvaluate},
		},
		{
			name:      "ranking failure is recorded",
			rankErr:   errBoom,
			completed: []string{StageIngest, StageEvaluate},
			failed:    []string{StageRank},
		},
		{
			name:      "every stage fails",
			ingestErr: errBoom,
			evalErr:   errBoom,
			rankErr:   errBoom,
			completed: []string{},
			failed:    []string{StageIngest, StageEvaluate, StageRank},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &fakeEvaluator{err: tt.evalErr}
			rk := &fakeRanker{err: tt.rankErr}
			o := newOrchestrator(&fakeIngester{err: tt.ingestErr}, ev, newFakeComparative(), rk)

			res, err := o.RunDaily(context.Background(), now)
			require.Error(t, err)
			assert.ErrorIs(t, err, errBoom)

			assert.False(t, res.Success)
			assert.Equal(t, tt.completed, res.CompletedStages)
			for _, stage := range tt.failed {
				assert.Contains(t, res.StageErrors, stage)
			}
			assert.Len(t, res.StageErrors, len(tt.failed))
			assert.Equal(t, 1, ev.calls)
			assert.Equal(t, 1, rk.calls)
		})
	}
}

func TestRunDaily_CancelledContext(t *testing.T) {
	ev := &fakeEvaluator{}
	rk := &fakeRanker{}
	o := newOrchestrator(&fakeIngester{}, ev, newFakeComparative(), rk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := o.RunDaily(ctx, now)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Success)
	assert.Zero(t, ev.calls)
	assert.Zero(t, rk.calls)
}

func TestRunMonthlyPerformance(t *testing.T) {
	cmp := newFakeComparative()
	o := newOrchestrator(&fakeIngester{}, &fakeEvaluator{}, cmp, &fakeRanker{})

	res, err := o.RunMonthlyPerformance(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "2026-03", res.PeriodKey)
	assert.Equal(t, []string{StagePerformance, StageTransformation}, res.CompletedStages)
	assert.Equal(t, "2026-03", cmp.calls[StagePerformance])
	assert.Equal(t, "2026-03", cmp.calls[StageTransformation])
	assert.Len(t, res.Results, 2)
}

func TestRunMonthlyPerformance_StagesFailIndependently(t *testing.T) {
	cmp := newFakeComparative()
	cmp.fail[StagePerformance] = errBoom
	o := newOrchestrator(&fakeIngester{}, &fakeEvaluator{}, cmp, &fakeRanker{})

	res, err := o.RunMonthlyPerformance(context.Background(), now)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{StageTransformation}, res.CompletedStages)
	assert.Contains(t, res.StageErrors, StagePerformance)
	assert.Equal(t, "2026-03", cmp.calls[StageTransformation])
}

func TestRunMonthlyTrophies(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		skipped bool
		key     string
	}{
		{"after quarter end", time.Date(2026, 4, 1, 4, 0, 0, 0, time.UTC), false, "2026-Q1"},
		{"after december", time.Date(2027, 1, 1, 4, 0, 0, 0, time.UTC), false, "2026-Q4"},
		{"mid quarter", time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC), true, "2026-Q2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := newFakeComparative()
			o := newOrchestrator(&fakeIngester{}, &fakeEvaluator{}, cmp, &fakeRanker{})

			res, err := o.RunMonthlyTrophies(context.Background(), tt.at)
			require.NoError(t, err)

			assert.Equal(t, tt.skipped, res.Skipped)
			assert.Equal(t, tt.key, res.PeriodKey)
			if tt.skipped {
				assert.NotContains(t, cmp.calls, StageTrophies)
			} else {
				assert.Equal(t, tt.key, cmp.calls[StageTrophies])
			}
		})
	}
}

func TestRunWeeklyConversion(t *testing.T) {
	cmp := newFakeComparative()
	o := newOrchestrator(&fakeIngester{}, &fakeEvaluator{}, cmp, &fakeRanker{})

	// Monday 2026-01-05 closes ISO week 2026-W01
	res, err := o.RunWeeklyConversion(context.Background(), time.Date(2026, 1, 5, 2, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-W01", res.PeriodKey)
	assert.Equal(t, "2026-W01", cmp.calls[StageConversion])
}

func TestPeriodKeysUseLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	cmp := newFakeComparative()
	o := NewOrchestrator(&fakeIngester{}, &fakeEvaluator{}, cmp, &fakeRanker{}, Options{Location: paris}, logger.Nop())

	// 2026-03-31 23:30 UTC is already April 1st in Paris
	res, err := o.RunMonthlyPerformance(context.Background(), time.Date(2026, 3, 31, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-03", res.PeriodKey)
}

type feedSource struct{ raw string }

func (f feedSource) FetchFeed(_ context.Context) (*salestracker.Snapshot, error) {
	var feed salestracker.Feed
	if err := json.Unmarshal([]byte(f.raw), &feed); err != nil {
		return nil, err
	}
	return &salestracker.Snapshot{Feed: feed, Raw: []byte(f.raw), FetchedAt: now}, nil
}

func TestRunDaily_EndToEnd(t *testing.T) {
	ctx := context.Background()
	price := 20.0

	s := memory.NewStore()
	s.AddParticipant(contracts.Commercial("c1"), "Alice", "u-1")
	s.AddParticipant(contracts.Commercial("c2"), "Chloé", "u-2")
	s.AddProduct(contracts.Product{ID: "p-mob", ExternalID: "EXT-MOB", Key: contracts.ProductMobile, ReferencePrice: &price})
	_, err := badges.NewSeeder(s, logger.Nop()).Seed(ctx)
	require.NoError(t, err)

	feed := feedSource{raw: `[{"id": 1, "subscriptions": [
	  {"id": "s1", "participantId": "u-1", "productId": "EXT-MOB", "contracts": [
	    {"id": "k1", "status": "validated", "dateValidation": "2026-03-31T09:00:00Z"},
	    {"id": "k2", "status": "validated", "dateValidation": "2026-03-31T11:00:00Z"},
	    {"id": "k3", "status": "validated", "dateValidation": "2026-03-31T15:00:00Z"}
	  ]}
	]}]`}

	log := logger.Nop()
	evalEngine := evaluation.NewEngine(s, evaluation.Config{Workers: 2, Location: time.UTC}, log)
	o := NewOrchestrator(
		ingest.NewIngestor(feed, s, nil, time.UTC, log),
		evalEngine,
		evaluation.NewComparative(s, evalEngine, log),
		ranking.NewEngine(s, nil, time.UTC, log),
		Options{Location: time.UTC},
		log,
	)

	at := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	res, err := o.RunDaily(ctx, at)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Ingest.Created)
	assert.Positive(t, res.Evaluation.Awarded)
	assert.Len(t, res.Ranking, len(period.Types))

	board, err := s.ListSnapshots(ctx, period.Monthly, "2026-03")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, contracts.Commercial("c1"), board[0].Participant)
	assert.Equal(t, int64(60), board[0].Points)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, int64(0), board[1].Points)

	// a second run over the same feed changes nothing
	awards := len(s.AllAwards())
	res, err = o.RunDaily(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Ingest.Updated)
	assert.Zero(t, res.Evaluation.Awarded)
	assert.Len(t, s.AllAwards(), awards)
}
