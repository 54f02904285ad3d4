package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/artfreyr/kap-bot/clock"
	"github.com/artfreyr/kap-bot/db"
	"github.com/artfreyr/kap-bot/mutex"
	"github.com/artfreyr/kap-bot/templates"
)

const (
	quietHour     = 1
	quietDuration = 6 * time.Hour
	// Notifications go out when a class starts within [0, leadWindow) minutes.
	leadWindow      = 75
	dateLayout      = "2006-01-02"
	startTimeLayout = "15:04"

	resetAttempts = 5
	resetBackoff  = 30 * time.Second
)

type Store interface {
	ListNotifications(ctx context.Context, date string) ([]db.Notification, error)
	ClaimNotification(ctx context.Context, userId int64, classCode string) (bool, error)
	ResetDailyCounts(ctx context.Context) (int64, error)
}

type Sender interface {
	Send(ctx context.Context, chatId int64, text string) error
}

type Locks interface {
	DailyReset(day string) mutex.Lock
}

type Options struct {
	// AdminID receives the sleep/wake signals. Zero disables them.
	AdminID int64
	// PollInterval is the pause after a poll that found classes today.
	PollInterval time.Duration
	// IdleInterval is the pause after a poll that found nothing.
	IdleInterval time.Duration
}

// Daemon sends class reminders, at most one per subscription per day.
type Daemon struct {
	store     Store
	sender    Sender
	locks     Locks
	clock     clock.Clock
	log       *zap.Logger
	options   Options
	lastReset string

	// failedReset is the day whose reset gave up during the quiet regime.
	failedReset string
}

func New(store Store, sender Sender, locks Locks, clock clock.Clock, log *zap.Logger, options Options) *Daemon {
	return &Daemon{
		store:   store,
		sender:  sender,
		locks:   locks,
		clock:   clock,
		log:     log.With(zap.String("component", "notifier")),
		options: options,
	}
}

// Run blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	for {
		if err := d.RunOnce(ctx); err != nil {
			d.log.Info("notifier stopped", zap.Error(err))
			return
		}
	}
}

// RunOnce is one loop iteration including its trailing sleep. It only
// returns an error when ctx is cancelled.
func (d *Daemon) RunOnce(ctx context.Context) error {
	now := d.clock.Now()
	if now.Hour() == quietHour {
		if err := d.quiet(ctx, now); err != nil {
			return err
		}
		now = d.clock.Now()
	}
	if day := now.Format(dateLayout); d.failedReset == day {
		done, err := d.reset(ctx, day)
		if err != nil {
			return err
		}
		if done {
			d.lastReset = day
			d.failedReset = ""
		}
	}

	notifications, err := d.store.ListNotifications(ctx, now.Format(dateLayout))
	if err != nil {
		d.log.Error("unable to list notifications", zap.Error(err))
		return d.clock.Sleep(ctx, d.options.IdleInterval)
	}
	if len(notifications) == 0 {
		return d.clock.Sleep(ctx, d.options.IdleInterval)
	}

	now = d.clock.Now()
	for _, n := range notifications {
		d.notify(ctx, n, now)
	}
	return d.clock.Sleep(ctx, d.options.PollInterval)
}

// quiet resets the daily counters once per day and then sleeps through the
// night.
func (d *Daemon) quiet(ctx context.Context, now time.Time) error {
	day := now.Format(dateLayout)
	if d.lastReset == day || d.failedReset == day {
		return nil
	}
	d.signal(ctx, templates.Sleeping)

	if err := d.resetWithRetry(ctx, day); err != nil {
		return err
	}

	if err := d.clock.Sleep(ctx, quietDuration); err != nil {
		return err
	}
	d.signal(ctx, templates.WokenUp)
	return nil
}

// resetWithRetry only returns ctx errors. When every attempt fails the day is
// left in failedReset and RunOnce keeps trying after the quiet regime.
func (d *Daemon) resetWithRetry(ctx context.Context, day string) error {
	backoff := resetBackoff
	for attempt := 1; ; attempt++ {
		done, err := d.reset(ctx, day)
		if err != nil {
			return err
		}
		if done {
			d.lastReset = day
			return nil
		}
		if attempt == resetAttempts {
			d.failedReset = day
			d.log.Error("giving up on notification counts reset", zap.String("day", day), zap.Int("attempts", attempt))
			return nil
		}
		if err := d.clock.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
}

// reset reports whether the counters for day are reset, here or by another
// instance holding the day lock. A failed reset releases the lock again.
func (d *Daemon) reset(ctx context.Context, day string) (bool, error) {
	lock := d.locks.DailyReset(day)
	err := lock.LockContext(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return false, ctx.Err()
	case err != nil:
		d.log.Info("notification counts already reset", zap.String("day", day), zap.Error(err))
		return true, nil
	}

	reset, err := d.store.ResetDailyCounts(ctx)
	if err != nil {
		d.log.Error("unable to reset notification counts", zap.String("day", day), zap.Error(err))
		if _, unlockErr := lock.UnlockContext(ctx); unlockErr != nil {
			d.log.Warn("unable to release reset lock", zap.String("day", day), zap.Error(unlockErr))
		}
		return false, nil
	}
	d.log.Info("notification counts reset", zap.String("day", day), zap.Int64("subscriptions", reset))
	return true, nil
}

func (d *Daemon) notify(ctx context.Context, n db.Notification, now time.Time) {
	if n.DailyNotifCount > 0 {
		return
	}
	minutes, err := MinutesUntil(n.StartTime, now)
	if err != nil {
		d.log.Warn("skipping class with bad start time",
			zap.String("class", n.ClassCode),
			zap.String("startTime", n.StartTime),
		)
		return
	}
	if !InLeadWindow(minutes) {
		return
	}
	claimed, err := d.store.ClaimNotification(ctx, n.UserId, n.ClassCode)
	if err != nil {
		d.log.Error("unable to claim notification", zap.Int64("user", n.UserId), zap.String("class", n.ClassCode), zap.Error(err))
		return
	}
	if !claimed {
		return
	}
	err = d.sender.Send(ctx, n.UserId, Format(n, minutes))
	if err != nil {
		d.log.Error("unable to send notification", zap.Int64("user", n.UserId), zap.String("class", n.ClassCode), zap.Error(err))
		return
	}
	d.log.Info("notification sent", zap.Int64("user", n.UserId), zap.String("class", n.ClassCode), zap.Int("minutes", minutes))
}

func (d *Daemon) signal(ctx context.Context, text string) {
	if d.options.AdminID == 0 {
		return
	}
	if err := d.sender.Send(ctx, d.options.AdminID, text); err != nil {
		d.log.Warn("unable to signal admin", zap.String("text", text), zap.Error(err))
	}
}

// MinutesUntil is the time-of-day difference between an "HH:MM" start time
// and now, in whole minutes. Negative once the class has started.
func MinutesUntil(startTime string, now time.Time) (int, error) {
	start, err := time.Parse(startTimeLayout, startTime)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to parse start time %q", startTime)
	}
	return start.Hour()*60 + start.Minute() - (now.Hour()*60 + now.Minute()), nil
}

func InLeadWindow(minutes int) bool {
	return minutes >= 0 && minutes < leadWindow
}

func Format(n db.Notification, minutes int) string {
	return fmt.Sprintf(templates.Notification,
		templates.EscapeMarkdown(n.ClassCode),
		templates.EscapeMarkdown(n.Location),
		minutes,
		templates.EscapeMarkdown(n.Duration),
	)
}
