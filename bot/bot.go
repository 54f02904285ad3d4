package bot

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/artfreyr/kap-bot/clock"
	"github.com/artfreyr/kap-bot/config"
	"github.com/artfreyr/kap-bot/db"
	"github.com/artfreyr/kap-bot/feed"
	"github.com/artfreyr/kap-bot/mutex"
	"github.com/artfreyr/kap-bot/notifier"
	"github.com/artfreyr/kap-bot/schedule"
	"github.com/artfreyr/kap-bot/templates"
	"github.com/artfreyr/kap-bot/timezone"
)

const shutdownTimeout = 10 * time.Second

// Start wires the store, both daemons, the operator API and the Telegram
// poller. It blocks until ctx is cancelled, then signals confirm once
// everything has stopped.
func Start(ctx context.Context, c config.Config, log *zap.Logger, confirm chan<- struct{}) error {
	location, err := timezone.Load(c.TimeZone)
	if err != nil {
		return err
	}
	clk := clock.NewReal(location)

	dbService := db.New(c.DB.Address, c.DB.User, c.DB.Password, c.DB.Database)
	dbService.SetTimeout(c.DB.Timeout)
	if c.DB.Debug {
		dbService.EnableDebug()
	}
	err = dbService.Migrate(ctx)
	if err != nil {
		return errors.Wrap(err, "error during migration")
	}
	mutexBuilder := mutex.NewBuilder(c.Redis.Address)

	s := tele.Settings{
		Token: c.Telegram.Token,
		Poller: &tele.LongPoller{
			Timeout: time.Second * 10,
		},
	}
	bot, err := tele.NewBot(s)
	if err != nil {
		return errors.Wrap(err, "error during creation of a new bot")
	}

	botService := NewService(dbService, clk, log)
	bot.Handle("/start", botService.Start)
	bot.Handle("/help", botService.Help)
	bot.Handle("/type", botService.SetStudentType)
	bot.Handle("/uni", botService.SetUniversity)
	bot.Handle("/add", botService.AddSubscription)
	bot.Handle("/list", botService.ListSubscriptions)
	bot.Handle("/remove", botService.ShowRemoveSubscription)
	bot.Handle("/deleteaccount", botService.DeleteAccount)
	bot.Handle("/studyrooms", botService.StudyRooms)
	bot.Handle(tele.OnCallback, func(context tele.Context) error {
		defer func() {
			err := context.Respond()
			if err != nil {
				log.Warn("unable to answer callback", zap.Error(err))
			}
		}()
		return botService.ProcessCallback(context)
	})
	bot.OnError = func(err error, context tele.Context) {
		log.Error("error during handling update", zap.Error(err))
		err = context.Send(templates.UnexpectedError)
		if err != nil {
			log.Warn("unable to report error to chat", zap.Error(err))
		}
	}

	feedClient := feed.NewClient(c.Feed.URL, c.Feed.Timeout, log)
	refresher := schedule.NewRefresher(dbService, feedClient, mutexBuilder, clk, log, c.Refresh.OnStart)
	daemon := notifier.New(dbService, NewSender(bot), mutexBuilder, clk, log, notifier.Options{
		AdminID:      c.Telegram.AdminID,
		PollInterval: c.Notifier.PollInterval,
		IdleInterval: c.Notifier.IdleInterval,
	})

	var daemons sync.WaitGroup
	daemons.Add(2)
	go func() {
		defer daemons.Done()
		refresher.Run(ctx)
	}()
	go func() {
		defer daemons.Done()
		daemon.Run(ctx)
	}()

	server := &http.Server{
		Addr:              c.HTTP.Address,
		Handler:           NewRouter(dbService, refresher, clk, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		bot.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown error", zap.Error(err))
		}
		daemons.Wait()
		if err := dbService.Close(); err != nil {
			log.Warn("error during closing db", zap.Error(err))
		}
		confirm <- struct{}{}
	}()

	log.Info("bot started", zap.String("http", c.HTTP.Address), zap.String("timezone", location.String()))
	// Blocks until stop
	bot.Start()
	return nil
}
