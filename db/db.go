package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

var (
	ErrNotFound = errors.New("entity not found")
)

type DB struct {
	db      *bun.DB
	timeout time.Duration
}

const defaultTimeout = time.Minute

func New(address, user, password, database string) *DB {
	connector := pgdriver.NewConnector(
		pgdriver.WithInsecure(true),
		pgdriver.WithAddr(address),
		pgdriver.WithUser(user),
		pgdriver.WithPassword(password),
		pgdriver.WithDatabase(database),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())
	return &DB{db: db, timeout: defaultTimeout}
}

func (d *DB) SetTimeout(duration time.Duration) {
	d.timeout = duration
}

func (d *DB) EnableDebug() {
	d.db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
}

func (d *DB) Close() error {
	return d.db.Close()
}

var models = []interface{}{
	(*ScheduleEntry)(nil),
	(*RegisteredUser)(nil),
	(*Subscription)(nil),
}

// Migrate creates the tables that do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, model := range models {
		c, cancel := context.WithTimeout(ctx, d.timeout)
		_, err := d.db.NewCreateTable().Model(model).IfNotExists().Exec(c)
		cancel()
		if err != nil {
			return errors.Wrapf(err, "unable to create table for %T", model)
		}
	}
	return nil
}
