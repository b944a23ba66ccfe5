package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"GroceryLens/internal/chart"
	"GroceryLens/internal/notifier"
	"GroceryLens/internal/recorder"
	"GroceryLens/internal/tracker"
	"GroceryLens/internal/view"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notifier delivers a reply to the configured chat.
type Notifier interface {
	Notify(ctx context.Context, r notifier.Reply) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Tracker   *tracker.Tracker
	Notifier  Notifier
	Charts    chart.Renderer
	Recorder  recorder.Recorder
	Watchlist []string
	Ctx       context.Context
	log       *zap.Logger
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, t *tracker.Tracker, n Notifier, charts chart.Renderer, rec recorder.Recorder, watchlist []string, log *zap.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Tracker:   t,
		Notifier:  n,
		Charts:    charts,
		Recorder:  rec,
		Watchlist: watchlist,
		Ctx:       ctx,
		log:       log,
	}
}

// RegisterAll registers the watch-list digest and the catalog resync. The
// digest is skipped when the watch list is empty.
func (s *Scheduler) RegisterAll(digestCron, refreshCron string) error {
	if len(s.Watchlist) > 0 {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunDigestNow runs the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	s.log.Info("running watchlist digest", zap.Strings("products", s.Watchlist))
	start := time.Now()

	results, err := s.Tracker.Compare(s.Ctx, s.Watchlist)
	if err != nil {
		s.log.Error("digest compare", zap.Error(err))
		s.trySend(notifier.Reply{Text: "❌ Watchlist digest failed: " + html.EscapeString(err.Error())})
		s.record("digest", strings.Join(s.Watchlist, ", "), recorder.OutcomeInternal, err.Error(), start)
		return
	}

	reply := notifier.Reply{Text: "🗓 <b>Watchlist digest</b>\n\n" + view.FormatComparison(results)}
	if s.Charts != nil {
		path, err := s.Charts.Render(view.ComparisonChart(results))
		if err != nil {
			s.log.Warn("digest chart", zap.Error(err))
		} else {
			reply.Document = path
			reply.RemoveDocument = true
		}
	}
	s.trySend(reply)
	s.record("digest", strings.Join(s.Watchlist, ", "), recorder.OutcomeOK, "", start)
}

func (s *Scheduler) refreshTask() {
	start := time.Now()
	s.Tracker.Invalidation().MarkDirty(tracker.RefreshOrder...)
	done, err := s.Tracker.Refresh(s.Ctx)
	if err != nil {
		s.log.Warn("scheduled refresh", zap.Error(err))
		s.record("refresh", "", recorder.OutcomeInternal, err.Error(), start)
		return
	}
	names := make([]string, len(done))
	for i, n := range done {
		names[i] = string(n)
	}
	s.log.Debug("caches refreshed", zap.Strings("caches", names))
	s.record("refresh", strings.Join(names, ", "), recorder.OutcomeOK, "", start)
}

func (s *Scheduler) record(action, subject string, outcome recorder.Outcome, detail string, start time.Time) {
	if err := s.Recorder.RecordAction(&recorder.ActionEvent{
		At:       start,
		Action:   action,
		Subject:  subject,
		Outcome:  outcome,
		Detail:   detail,
		Duration: time.Since(start),
	}); err != nil {
		s.log.Error("record scheduled action", zap.Error(err))
	}
}

func (s *Scheduler) trySend(r notifier.Reply) {
	if err := s.Notifier.Notify(s.Ctx, r); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
