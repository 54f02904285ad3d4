package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// StudentTypeUndecided is stored until the user picks FT or PT. It matches no
// schedule row, so such users get no notifications.
const StudentTypeUndecided = "ND"

func (d *DB) GetUser(ctx context.Context, id int64) (RegisteredUser, error) {
	u := RegisteredUser{Id: id}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.db.NewSelect().Model(&u).WherePK().Scan(ctx)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return RegisteredUser{}, ErrNotFound
	}
	if err != nil {
		return RegisteredUser{}, errors.Wrap(err, "error during querying user")
	}
	return u, nil
}

func (d *DB) AddUser(ctx context.Context, u RegisteredUser) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	_, err := d.db.NewInsert().Model(&u).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during adding user")
	}
	return nil
}

func (d *DB) SetStudentType(ctx context.Context, id int64, studentType string) error {
	return d.setUserColumn(ctx, id, "student_type", studentType)
}

func (d *DB) SetUniversityType(ctx context.Context, id int64, universityType string) error {
	return d.setUserColumn(ctx, id, "university_type", universityType)
}

func (d *DB) setUserColumn(ctx context.Context, id int64, column, value string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.db.NewUpdate().
		Model((*RegisteredUser)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "error during setting %v of user %v", column, id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "error during reading updated rows")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user together with all their subscriptions.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*Subscription)(nil)).Where("user_id = ?", id).Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "error during removing subscriptions of user %v", id)
		}
		_, err = tx.NewDelete().Model((*RegisteredUser)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "error during removing user %v", id)
		}
		return nil
	})
}

// AddSubscription reports false when the user already follows classCode.
func (d *DB) AddSubscription(ctx context.Context, userId int64, classCode string) (bool, error) {
	sub := Subscription{
		UserId:    userId,
		ClassCode: classCode,
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	exists, err := d.db.
		NewSelect().
		Model(&sub).
		Where("user_id = ?", sub.UserId).
		Where("class_code = ?", sub.ClassCode).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "error during checking subscription")
	}
	if exists {
		return false, nil
	}
	_, err = d.db.NewInsert().Model(&sub).Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, "error during adding subscription")
	}
	return true, nil
}

func (d *DB) ListSubscriptions(ctx context.Context, userId int64) ([]Subscription, error) {
	var subs []Subscription
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.db.NewSelect().
		Model(&subs).
		Where("user_id = ?", userId).
		Order("class_code").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying subscriptions")
	}
	return subs, nil
}

// RemoveSubscription reports false when there was nothing to remove.
func (d *DB) RemoveSubscription(ctx context.Context, userId int64, classCode string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.db.NewDelete().
		Model((*Subscription)(nil)).
		Where("user_id = ?", userId).
		Where("class_code = ?", classCode).
		Exec(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "error during removing subscription %v/%v", userId, classCode)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error during reading removed rows")
	}
	return affected > 0, nil
}

func (d *DB) RemoveAllSubscriptions(ctx context.Context, userId int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.db.NewDelete().
		Model((*Subscription)(nil)).
		Where("user_id = ?", userId).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "error during removing subscriptions of user %v", userId)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "error during reading removed rows")
	}
	return affected, nil
}
