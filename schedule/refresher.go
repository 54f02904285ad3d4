package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/artfreyr/kap-bot/clock"
	"github.com/artfreyr/kap-bot/db"
	"github.com/artfreyr/kap-bot/feed"
	"github.com/artfreyr/kap-bot/mutex"
)

const (
	// Minute 15 of every even hour.
	refreshSpec = "15 */2 * * *"
	// Waking in this hour means the night slot: hold off until morning.
	overnightHour  = 2
	overnightDelay = 4 * time.Hour
)

var (
	ErrLocked      = errors.New("refresh is already running")
	ErrFetchFailed = errors.New("unable to fetch feed")
)

var refreshCalendar = mustParse(refreshSpec)

func mustParse(spec string) cron.Schedule {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		panic(err)
	}
	return s
}

type Store interface {
	ReplaceSchedule(ctx context.Context, entries []db.ScheduleEntry) error
}

type Fetcher interface {
	Fetch(ctx context.Context) ([]feed.Record, error)
}

type Locks interface {
	Refresh() mutex.Lock
}

// Refresher keeps the schedule cache in line with the upstream feed.
type Refresher struct {
	store   Store
	fetcher Fetcher
	locks   Locks
	clock   clock.Clock
	log     *zap.Logger
	onStart bool
}

func NewRefresher(store Store, fetcher Fetcher, locks Locks, clock clock.Clock, log *zap.Logger, onStart bool) *Refresher {
	return &Refresher{
		store:   store,
		fetcher: fetcher,
		locks:   locks,
		clock:   clock,
		log:     log.With(zap.String("component", "refresher")),
		onStart: onStart,
	}
}

// NextWake returns the first refresh slot strictly after now, in now's
// location.
func NextWake(now time.Time) time.Time {
	return refreshCalendar.Next(now)
}

// Run blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	if r.onStart {
		r.cycle(ctx)
	}
	for {
		if err := r.Step(ctx); err != nil {
			r.log.Info("refresher stopped", zap.Error(err))
			return
		}
	}
}

// Step sleeps until the next slot and runs one cycle. It only returns an
// error when ctx is cancelled.
func (r *Refresher) Step(ctx context.Context) error {
	now := r.clock.Now()
	wake := NextWake(now)
	r.log.Debug("sleeping until next refresh", zap.Time("wake", wake))
	if err := r.clock.Sleep(ctx, wake.Sub(now)); err != nil {
		return err
	}
	if r.clock.Now().Hour() == overnightHour {
		r.log.Debug("overnight slot, delaying refresh", zap.Duration("delay", overnightDelay))
		if err := r.clock.Sleep(ctx, overnightDelay); err != nil {
			return err
		}
	}
	r.cycle(ctx)
	return ctx.Err()
}

func (r *Refresher) cycle(ctx context.Context) {
	count, err := r.RunCycle(ctx)
	if err != nil {
		r.log.Error("refresh cycle skipped", zap.Error(err))
		return
	}
	r.log.Info("schedule refreshed", zap.Int("entries", count))
}

// RunCycle fetches the feed and replaces the schedule cache. When the fetch
// or the store fails the cache keeps its previous contents.
func (r *Refresher) RunCycle(ctx context.Context) (int, error) {
	lock := r.locks.Refresh()
	if err := lock.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, errors.Wrap(ErrLocked, err.Error())
	}
	defer func() {
		_, err := lock.UnlockContext(context.Background())
		if err != nil {
			r.log.Warn("unable to release refresh lock", zap.Error(err))
		}
	}()

	records, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return 0, errors.Wrap(ErrFetchFailed, err.Error())
	}
	entries := feed.Parse(records)
	rows := make([]db.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if e.DataIssue.Exists {
			r.log.Warn("feed data issue",
				zap.String("class", e.ClassCode),
				zap.String("location", e.Location),
				zap.String("issue", e.DataIssue.Description),
			)
		}
		rows = append(rows, toRow(e))
	}
	if err := r.store.ReplaceSchedule(ctx, rows); err != nil {
		return 0, errors.Wrap(err, "unable to store schedule")
	}
	return len(rows), nil
}

func toRow(e feed.Entry) db.ScheduleEntry {
	return db.ScheduleEntry{
		StudentType:      string(e.StudentType),
		UniversityType:   string(e.University),
		ClassCode:        e.ClassCode,
		Location:         e.Location,
		StartTime:        e.StartTime,
		Date:             e.Date,
		Duration:         e.Duration,
		GroupRestriction: e.GroupRestriction,
		DataIssueExists:  e.DataIssue.Exists,
		DataIssue:        e.DataIssue.Description,
	}
}
