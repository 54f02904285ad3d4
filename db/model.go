package db

import "github.com/uptrace/bun"

// ScheduleEntry is one cached class occurrence. The table is rebuilt on every
// refresh cycle.
type ScheduleEntry struct {
	bun.BaseModel `bun:"table:schedule_cache,alias:sc"`

	Id               int64  `bun:",pk,autoincrement" json:"-"`
	StudentType      string `bun:",notnull" json:"studentType"`
	UniversityType   string `bun:",notnull" json:"universityType"`
	ClassCode        string `bun:",notnull" json:"classCode"`
	Location         string `bun:",notnull" json:"location"`
	StartTime        string `bun:",notnull" json:"startTime"`
	Date             string `bun:",notnull" json:"date"`
	Duration         string `bun:",notnull" json:"duration"`
	GroupRestriction string `bun:",notnull" json:"groupRestriction,omitempty"`
	DataIssueExists  bool   `bun:",notnull" json:"dataIssueExists"`
	DataIssue        string `bun:",notnull" json:"dataIssue,omitempty"`
}

// RegisteredUser and Subscription are written by the bot commands.
type RegisteredUser struct {
	bun.BaseModel `bun:"table:registered_users,alias:u"`

	Id             int64 `bun:",pk"`
	UniversityType string
	StudentType    string
}

type Subscription struct {
	bun.BaseModel `bun:"table:notification_subscriptions,alias:s"`

	Id              int64  `bun:",pk,autoincrement"`
	UserId          int64  `bun:",notnull"`
	ClassCode       string `bun:",notnull"`
	DailyNotifCount int    `bun:",notnull"`
}

// Notification is a subscription joined with today's matching class.
type Notification struct {
	UserId          int64
	StudentType     string
	UniversityType  string
	ClassCode       string
	Location        string
	StartTime       string
	Date            string
	Duration        string
	DailyNotifCount int
}
