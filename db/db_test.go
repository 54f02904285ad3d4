package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const today = "2024-05-01"

// setupTestDB opens a private in-memory SQLite database with the schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	d := &DB{db: bun.NewDB(sqldb, sqlitedialect.New()), timeout: defaultTimeout}
	require.NoError(t, d.Migrate(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, d.Close())
	})
	return d
}

func seedUsers(t *testing.T, d *DB, users ...RegisteredUser) {
	t.Helper()
	_, err := d.db.NewInsert().Model(&users).Exec(context.Background())
	require.NoError(t, err)
}

func seedSubscriptions(t *testing.T, d *DB, subs ...Subscription) {
	t.Helper()
	_, err := d.db.NewInsert().Model(&subs).Exec(context.Background())
	require.NoError(t, err)
}

func classEntry(code, studentType, date, start string) ScheduleEntry {
	return ScheduleEntry{
		StudentType:    studentType,
		UniversityType: "MUR",
		ClassCode:      code,
		Location:       "R1",
		StartTime:      start,
		Date:           date,
		Duration:       "2h",
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	d := setupTestDB(t)

	assert.NoError(t, d.Migrate(context.Background()))
}

func TestDB_ReplaceSchedule(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{
		classEntry("ICT380", "FT", today, "09:00"),
		classEntry("ICT170", "FT", today, "13:00"),
	}))
	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{
		classEntry("BSC200", "PT", today, "18:30"),
	}))

	entries, err := d.ListSchedule(ctx, today)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BSC200", entries[0].ClassCode)
	assert.Equal(t, "18:30", entries[0].StartTime)
}

func TestDB_ReplaceScheduleEmpty(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{classEntry("ICT380", "FT", today, "09:00")}))

	require.NoError(t, d.ReplaceSchedule(ctx, nil))

	entries, err := d.ListSchedule(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDB_ReplaceScheduleRollsBackOnInsertError(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{
		classEntry("ICT380", "FT", today, "09:00"),
		classEntry("ICT170", "FT", today, "13:00"),
	}))
	_, err := d.db.ExecContext(ctx, `CREATE TRIGGER reject_class BEFORE INSERT ON schedule_cache
		WHEN NEW.class_code = 'BROKEN'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = d.ReplaceSchedule(ctx, []ScheduleEntry{
		classEntry("BSC200", "PT", today, "18:30"),
		classEntry("BROKEN", "PT", today, "19:30"),
	})
	require.Error(t, err)

	entries, err := d.ListSchedule(ctx, today)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ICT380", entries[0].ClassCode)
	assert.Equal(t, "ICT170", entries[1].ClassCode)
}

func TestDB_ReplaceScheduleKeepsDataIssue(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	e := classEntry("ICT380", "FT", today, "09:00")
	e.GroupRestriction = "GrpA"
	e.DataIssueExists = true
	e.DataIssue = "Issues in raw data"

	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{e}))

	entries, err := d.ListSchedule(ctx, today)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].DataIssueExists)
	assert.Equal(t, "Issues in raw data", entries[0].DataIssue)
	assert.Equal(t, "GrpA", entries[0].GroupRestriction)
}

func TestDB_ListStudyRooms(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	room := ScheduleEntry{ClassCode: StudyRoomCode, Location: "L2", StartTime: "09:00", Date: today, Duration: "all day"}
	tomorrowRoom := room
	tomorrowRoom.Date = "2024-05-02"
	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{
		room,
		tomorrowRoom,
		classEntry("ICT380", "FT", today, "09:00"),
	}))

	rooms, err := d.ListStudyRooms(ctx, today)
	require.NoError(t, err)

	require.Len(t, rooms, 1)
	assert.Equal(t, "L2", rooms[0].Location)
}

func TestDB_ListNotifications(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedUsers(t, d,
		RegisteredUser{Id: 1, UniversityType: "MUR", StudentType: "FT"},
		RegisteredUser{Id: 2, UniversityType: "MUR", StudentType: "PT"},
	)
	seedSubscriptions(t, d,
		Subscription{UserId: 1, ClassCode: "ICT380"},
		Subscription{UserId: 2, ClassCode: "ICT380"},
		Subscription{UserId: 1, ClassCode: "ICT170"},
	)
	require.NoError(t, d.ReplaceSchedule(ctx, []ScheduleEntry{
		classEntry("ICT380", "FT", today, "09:00"),
		classEntry("ICT170", "FT", "2024-05-02", "09:00"),
	}))

	notifications, err := d.ListNotifications(ctx, today)
	require.NoError(t, err)

	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, int64(1), n.UserId)
	assert.Equal(t, "ICT380", n.ClassCode)
	assert.Equal(t, "FT", n.StudentType)
	assert.Equal(t, "MUR", n.UniversityType)
	assert.Equal(t, "R1", n.Location)
	assert.Equal(t, "09:00", n.StartTime)
	assert.Equal(t, today, n.Date)
	assert.Equal(t, "2h", n.Duration)
	assert.Equal(t, 0, n.DailyNotifCount)
}

func TestDB_ClaimAndReset(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedUsers(t, d, RegisteredUser{Id: 1, StudentType: "FT"})
	seedSubscriptions(t, d,
		Subscription{UserId: 1, ClassCode: "ICT380"},
		Subscription{UserId: 1, ClassCode: "ICT170"},
	)

	claimed, err := d.ClaimNotification(ctx, 1, "ICT380")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = d.ClaimNotification(ctx, 1, "ICT380")
	require.NoError(t, err)
	assert.False(t, claimed, "second claim on the same day must fail")

	reset, err := d.ResetDailyCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	claimed, err = d.ClaimNotification(ctx, 1, "ICT380")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestDB_ClaimUnknownSubscription(t *testing.T) {
	d := setupTestDB(t)

	claimed, err := d.ClaimNotification(context.Background(), 99, "NOPE")

	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestDB_GetUser(t *testing.T) {
	d := setupTestDB(t)
	seedUsers(t, d, RegisteredUser{Id: 7, UniversityType: "UCD", StudentType: "PT"})

	u, err := d.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "PT", u.StudentType)

	_, err = d.GetUser(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
}
