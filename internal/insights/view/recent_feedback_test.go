package view

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"calbook/pkg/logger"
	"calbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

type fakeSource struct {
	cached   []model.RatingRow
	isCached bool
	result   chan singleflight.Result
	reads    int
}

func (f *fakeSource) Cached(model.RatingsScope) ([]model.RatingRow, bool) {
	return f.cached, f.isCached
}

func (f *fakeSource) RecentRatingsAsync(context.Context, model.RatingsScope) <-chan singleflight.Result {
	f.reads++
	return f.result
}

func resolved(val any, err error) chan singleflight.Result {
	ch := make(chan singleflight.Result, 1)
	ch <- singleflight.Result{Val: val, Err: err}
	return ch
}

var rows = []model.RatingRow{
	{UserID: "u1", Name: "Alice", Email: "alice@example.com", Rating: 5, Feedback: "Great call", EndedAt: time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)},
	{UserID: "u2", Name: "Bob <script>", Email: "bob@example.com", Rating: 2, Feedback: "Late", EndedAt: time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC)},
}

func render(t *testing.T, src Source) (State, string) {
	t.Helper()
	var buf bytes.Buffer
	state, err := NewRecentFeedback(src, 50*time.Millisecond, logger.Discard()).Render(context.Background(), &buf, model.RatingsScope{TeamID: "t"})
	require.NoError(t, err)
	return state, buf.String()
}

func TestRender_DataShowsOneCardWithOneTable(t *testing.T) {
	src := &fakeSource{result: resolved(rows, nil)}
	state, out := render(t, src)

	assert.Equal(t, StateReady, state)
	assert.Equal(t, 1, strings.Count(out, "<section"))
	assert.Equal(t, 1, strings.Count(out, "<table"))
	assert.Equal(t, 2, strings.Count(out, "<tr>\n"))
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "Great call")
	assert.Contains(t, out, "Jan 10, 2026")
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, 1, src.reads)
}

func TestRender_EmptyRendersNothing(t *testing.T) {
	state, out := render(t, &fakeSource{result: resolved([]model.RatingRow{}, nil)})
	assert.Equal(t, StateEmpty, state)
	assert.Empty(t, out)
}

func TestRender_FailureRendersNothing(t *testing.T) {
	state, out := render(t, &fakeSource{result: resolved(nil, errors.New("503"))})
	assert.Equal(t, StateFailed, state)
	assert.Empty(t, out)
}

func TestRender_PendingShowsPlaceholder(t *testing.T) {
	state, out := render(t, &fakeSource{result: make(chan singleflight.Result)})
	assert.Equal(t, StatePending, state)
	assert.Contains(t, out, `aria-busy="true"`)
	assert.NotContains(t, out, "<table")
}

func TestRender_FreshCacheSkipsTheRead(t *testing.T) {
	src := &fakeSource{cached: rows, isCached: true}
	state, out := render(t, src)
	assert.Equal(t, StateReady, state)
	assert.Equal(t, 1, strings.Count(out, "<table"))
	assert.Zero(t, src.reads)

	src = &fakeSource{cached: []model.RatingRow{}, isCached: true}
	state, out = render(t, src)
	assert.Equal(t, StateEmpty, state)
	assert.Empty(t, out)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "failed", StateFailed.String())
}
