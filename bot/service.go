package bot

import (
	ctx "context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/artfreyr/kap-bot/clock"
	"github.com/artfreyr/kap-bot/db"
	"github.com/artfreyr/kap-bot/feed"
	"github.com/artfreyr/kap-bot/templates"
)

const (
	dateLayout         = "2006-01-02"
	// Class codes this long or longer are rejected before whitespace is
	// stripped.
	maxClassCodeLength = 19
	removeAllLabel     = "Remove all classes"
)

var (
	removeCallbackPattern  = regexp.MustCompile("^\f/remove code:(.+)$")
	removePatternCodeIndex = 1
	removeAllCallback      = "\f/remove all"
)

type Store interface {
	GetUser(c ctx.Context, id int64) (db.RegisteredUser, error)
	AddUser(c ctx.Context, u db.RegisteredUser) error
	SetStudentType(c ctx.Context, id int64, studentType string) error
	SetUniversityType(c ctx.Context, id int64, universityType string) error
	DeleteUser(c ctx.Context, id int64) error
	AddSubscription(c ctx.Context, userId int64, classCode string) (bool, error)
	ListSubscriptions(c ctx.Context, userId int64) ([]db.Subscription, error)
	RemoveSubscription(c ctx.Context, userId int64, classCode string) (bool, error)
	RemoveAllSubscriptions(c ctx.Context, userId int64) (int64, error)
	ListStudyRooms(c ctx.Context, date string) ([]db.ScheduleEntry, error)
}

type Service struct {
	store Store
	clock clock.Clock
	log   *zap.Logger
}

func NewService(store Store, clock clock.Clock, log *zap.Logger) *Service {
	return &Service{
		store: store,
		clock: clock,
		log:   log.With(zap.String("component", "bot")),
	}
}

func (s *Service) Start(context tele.Context) error {
	id := context.Chat().ID
	u, err := s.store.GetUser(ctx.Background(), id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if err != nil {
		err := s.store.AddUser(ctx.Background(), db.RegisteredUser{Id: id, StudentType: db.StudentTypeUndecided})
		if err != nil {
			return errors.Wrapf(err, "cannot register user %v", id)
		}
		s.log.Info("user registered", zap.Int64("user", id))
		return context.Send(templates.Hello)
	}
	err = context.Send(templates.WelcomeBack)
	if err != nil {
		return err
	}
	if u.StudentType == db.StudentTypeUndecided {
		return context.Send(templates.StudentTypeMissing)
	}
	return nil
}

func (s *Service) Help(context tele.Context) error {
	return context.Send(templates.Hello)
}

// requireUser sends the "start first" hint and reports false when the chat
// never ran /start.
func (s *Service) requireUser(context tele.Context) (bool, error) {
	_, err := s.store.GetUser(ctx.Background(), context.Chat().ID)
	if err != nil && errors.Is(err, db.ErrNotFound) {
		return false, context.Send(templates.UserNotStarted)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) SetStudentType(context tele.Context) error {
	studentType := feed.StudentType(strings.ToUpper(strings.TrimSpace(context.Data())))
	if studentType != feed.FullTime && studentType != feed.PartTime {
		return context.Send(templates.StudentTypeUsage)
	}
	err := s.store.SetStudentType(ctx.Background(), context.Chat().ID, string(studentType))
	if err != nil && errors.Is(err, db.ErrNotFound) {
		return context.Send(templates.UserNotStarted)
	}
	if err != nil {
		return errors.Wrap(err, "cannot save student type")
	}
	return context.Send(fmt.Sprintf(templates.StudentTypeSaved, studentType))
}

func (s *Service) SetUniversity(context tele.Context) error {
	university := feed.University(strings.ToUpper(strings.TrimSpace(context.Data())))
	if university != feed.UCD && university != feed.MUR {
		return context.Send(templates.UniversityUsage)
	}
	err := s.store.SetUniversityType(ctx.Background(), context.Chat().ID, string(university))
	if err != nil && errors.Is(err, db.ErrNotFound) {
		return context.Send(templates.UserNotStarted)
	}
	if err != nil {
		return errors.Wrap(err, "cannot save university")
	}
	return context.Send(fmt.Sprintf(templates.UniversitySaved, university))
}

func (s *Service) AddSubscription(context tele.Context) error {
	ok, err := s.requireUser(context)
	if !ok || err != nil {
		return err
	}
	data := context.Data()
	if len(strings.TrimSpace(data)) == 0 {
		return context.Send(templates.EmptyAdd)
	}
	if len(data) >= maxClassCodeLength {
		return context.Send(templates.ClassCodeTooLong)
	}
	classCode := NormalizeClassCode(data)
	added, err := s.store.AddSubscription(ctx.Background(), context.Chat().ID, classCode)
	if err != nil {
		return errors.Wrapf(err, "cannot add class %v", classCode)
	}
	if !added {
		return context.Send(fmt.Sprintf(templates.AlreadyAdded, classCode))
	}
	return context.Send(fmt.Sprintf(templates.AddSuccess, classCode))
}

func (s *Service) ListSubscriptions(context tele.Context) error {
	subscriptions, err := s.store.ListSubscriptions(ctx.Background(), context.Chat().ID)
	if err != nil {
		return errors.Wrap(err, "cannot get added classes")
	}
	if len(subscriptions) == 0 {
		return context.Send(templates.NoClasses)
	}
	lines := []string{templates.ClassList}
	for _, subscription := range subscriptions {
		lines = append(lines, subscription.ClassCode)
	}
	return context.Send(strings.Join(lines, "\n"))
}

func (s *Service) ShowRemoveSubscription(context tele.Context) error {
	subscriptions, err := s.store.ListSubscriptions(ctx.Background(), context.Chat().ID)
	if err != nil {
		return errors.Wrap(err, "cannot get added classes")
	}
	if len(subscriptions) == 0 {
		return context.Send(templates.NoClasses)
	}
	selector := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, subscription := range subscriptions {
		dataId := fmt.Sprintf("/remove code:%v", subscription.ClassCode)
		rows = append(rows, selector.Row(selector.Data(subscription.ClassCode, dataId)))
	}
	rows = append(rows, selector.Row(selector.Data(removeAllLabel, "/remove all")))
	selector.Inline(rows...)
	return context.Send(templates.SelectRemove, selector)
}

func (s *Service) ProcessCallback(context tele.Context) error {
	chatId := context.Chat().ID
	data := context.Callback().Data
	if data == removeAllCallback {
		removed, err := s.store.RemoveAllSubscriptions(ctx.Background(), chatId)
		if err != nil {
			return errors.Wrap(err, "cannot remove classes")
		}
		s.log.Info("subscriptions removed", zap.Int64("user", chatId), zap.Int64("count", removed))
		return context.Send(templates.RemoveAllSuccess)
	}
	submatch := removeCallbackPattern.FindStringSubmatch(data)
	if submatch != nil {
		classCode := submatch[removePatternCodeIndex]
		_, err := s.store.RemoveSubscription(ctx.Background(), chatId, classCode)
		if err != nil {
			return errors.Wrapf(err, "cannot remove class %v", classCode)
		}
		return context.Send(fmt.Sprintf(templates.RemoveSuccess, classCode))
	}
	return errors.Errorf("unknown callback data %q", data)
}

func (s *Service) DeleteAccount(context tele.Context) error {
	id := context.Chat().ID
	err := s.store.DeleteUser(ctx.Background(), id)
	if err != nil {
		return errors.Wrapf(err, "cannot delete user %v", id)
	}
	s.log.Info("user deleted", zap.Int64("user", id))
	return context.Send(templates.AccountDeleted)
}

func (s *Service) StudyRooms(context tele.Context) error {
	today := s.clock.Now().Format(dateLayout)
	rooms, err := s.store.ListStudyRooms(ctx.Background(), today)
	if err != nil {
		return errors.Wrap(err, "cannot list study rooms")
	}
	return context.Send(FormatStudyRooms(rooms), tele.ModeMarkdown)
}

// NormalizeClassCode strips all whitespace, the form class codes take in the
// schedule cache.
func NormalizeClassCode(text string) string {
	return strings.Join(strings.Fields(text), "")
}

func FormatStudyRooms(rooms []db.ScheduleEntry) string {
	if len(rooms) == 0 {
		return templates.NoStudyRooms
	}
	lines := []string{templates.StudyRooms}
	for _, room := range rooms {
		lines = append(lines, fmt.Sprintf(templates.StudyRoom,
			templates.EscapeMarkdown(room.Location),
			templates.EscapeMarkdown(room.StartTime),
			templates.EscapeMarkdown(room.Duration),
		))
	}
	return strings.Join(lines, "\n")
}
