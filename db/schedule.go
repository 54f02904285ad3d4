package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// StudyRoomCode is the class code under which study rooms are cached.
const StudyRoomCode = "Study Room"

// ReplaceSchedule swaps the whole schedule cache for entries in a single
// transaction. On error the previous contents stay visible.
func (d *DB) ReplaceSchedule(ctx context.Context, entries []ScheduleEntry) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*ScheduleEntry)(nil)).Where("1 = 1").Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "error during clearing schedule")
		}
		if len(entries) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&entries).Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "error during inserting schedule")
		}
		return nil
	})
}

func (d *DB) ListSchedule(ctx context.Context, date string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.db.NewSelect().
		Model(&entries).
		Where("sc.date = ?", date).
		Order("start_time", "location", "class_code").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying schedule")
	}
	return entries, nil
}

func (d *DB) ListStudyRooms(ctx context.Context, date string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.db.NewSelect().
		Model(&entries).
		Where("sc.class_code = ?", StudyRoomCode).
		Where("sc.date = ?", date).
		Order("location", "start_time").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying study rooms")
	}
	return entries, nil
}
