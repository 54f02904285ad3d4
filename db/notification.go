package db

import (
	"context"

	"github.com/pkg/errors"
)

// ListNotifications joins subscriptions with the classes cached for date,
// keeping only classes offered for the subscriber's student type.
func (d *DB) ListNotifications(ctx context.Context, date string) ([]Notification, error) {
	var notifications []Notification
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.db.NewSelect().
		TableExpr("notification_subscriptions AS s").
		ColumnExpr("s.user_id, s.class_code, s.daily_notif_count").
		ColumnExpr("u.student_type, u.university_type").
		ColumnExpr("sc.location, sc.start_time, sc.date, sc.duration").
		Join("JOIN schedule_cache AS sc ON sc.class_code = s.class_code").
		Join("JOIN registered_users AS u ON u.id = s.user_id").
		Where("u.student_type = sc.student_type").
		Where("sc.date = ?", date).
		OrderExpr("sc.start_time, s.user_id").
		Scan(ctx, &notifications)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying notifications")
	}
	return notifications, nil
}

// ClaimNotification marks today's notification for the subscription as sent.
// It reports false when it was already claimed, so the caller must not send.
func (d *DB) ClaimNotification(ctx context.Context, userId int64, classCode string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("daily_notif_count = daily_notif_count + 1").
		Where("user_id = ?", userId).
		Where("class_code = ?", classCode).
		Where("daily_notif_count = 0").
		Exec(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "error during claiming notification for %v/%v", userId, classCode)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error during reading claimed rows")
	}
	return affected > 0, nil
}

// ResetDailyCounts reopens every subscription for a new day.
func (d *DB) ResetDailyCounts(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("daily_notif_count = 0").
		Where("daily_notif_count <> 0").
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "error during resetting notification counts")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "error during reading reset rows")
	}
	return affected, nil
}
