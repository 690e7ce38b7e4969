package view

import (
	"context"
	"html/template"
	"io"
	"time"

	"calbook/pkg/logger"
	"calbook/pkg/model"

	"golang.org/x/sync/singleflight"
)

type State int

const (
	StatePending State = iota
	StateReady
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Source is the cached ratings read. *client.InsightsClient satisfies it.
type Source interface {
	Cached(scope model.RatingsScope) ([]model.RatingRow, bool)
	RecentRatingsAsync(ctx context.Context, scope model.RatingsScope) <-chan singleflight.Result
}

const Title = "Recent Ratings"

// DefaultRenderBudget bounds how long a render waits for a cold read.
const DefaultRenderBudget = 300 * time.Millisecond

const (
	loadingHTML = `<div class="recent-feedback recent-feedback--loading" aria-busy="true">Loading…</div>`

	cardHTML = `<section class="card recent-feedback">
  <h2 class="card__title">{{.Title}}</h2>
  <table class="recent-feedback__table">
    <thead><tr><th>User</th><th>Rating</th><th>Feedback</th><th>Date</th></tr></thead>
    <tbody>
{{- range .Rows}}
      <tr>
        <td>{{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}" alt="">{{end}}<span title="{{.Email}}">{{.Name}}</span></td>
        <td>{{.Rating}}</td>
        <td>{{.Feedback}}</td>
        <td>{{date .EndedAt}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>
</section>`
)

var templates = template.Must(template.Must(template.New("loading").Parse(loadingHTML)).
	New("card").
	Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006") },
	}).
	Parse(cardHTML))

// Write renders the markup for a state. Only pending and ready produce
// output; an empty or failed read renders nothing.
func Write(w io.Writer, state State, rows []model.RatingRow) error {
	switch state {
	case StatePending:
		return templates.ExecuteTemplate(w, "loading", nil)
	case StateReady:
		return templates.ExecuteTemplate(w, "card", struct {
			Title string
			Rows  []model.RatingRow
		}{Title: Title, Rows: rows})
	default:
		return nil
	}
}

func stateOf(rows []model.RatingRow, err error) State {
	switch {
	case err != nil:
		return StateFailed
	case len(rows) == 0:
		return StateEmpty
	default:
		return StateReady
	}
}

// RecentFeedback is the recent-ratings card. Each render issues one cached
// read and waits up to a short budget for it.
type RecentFeedback struct {
	src  Source
	wait time.Duration
	log  *logger.Logger
}

func NewRecentFeedback(src Source, wait time.Duration, log *logger.Logger) *RecentFeedback {
	return &RecentFeedback{src: src, wait: wait, log: log}
}

// Render writes the card for scope and returns the state it rendered. A read
// still in flight when the budget runs out keeps going in the background and
// fills the cache for the next render.
func (c *RecentFeedback) Render(ctx context.Context, w io.Writer, scope model.RatingsScope) (State, error) {
	if rows, ok := c.src.Cached(scope); ok {
		state := stateOf(rows, nil)
		return state, Write(w, state, rows)
	}

	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	var (
		rows  []model.RatingRow
		state State
	)
	select {
	case res := <-c.src.RecentRatingsAsync(ctx, scope):
		if res.Err != nil {
			logger.FromContext(ctx, c.log).Warn("Recent ratings read failed", "error", res.Err)
			state = StateFailed
			break
		}
		rows, _ = res.Val.([]model.RatingRow)
		state = stateOf(rows, nil)
	case <-timer.C:
		state = StatePending
	case <-ctx.Done():
		state = StatePending
	}

	return state, Write(w, state, rows)
}
