package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/artfreyr/kap-bot/bot"
	"github.com/artfreyr/kap-bot/config"
	"github.com/artfreyr/kap-bot/logger"
)

const configPath = "./config.json"

func main() {
	c, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err.Error())
		return
	}
	l, err := logger.New(c.Log.Level, c.Log.Format)
	if err != nil {
		log.Fatalf("unable to build logger: %v", err.Error())
		return
	}
	defer func() {
		_ = l.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	confirm := make(chan struct{})
	go func() {
		err := bot.Start(ctx, c, l, confirm)
		if err != nil {
			l.Fatal("bot stopped", zap.Error(err))
		}
	}()
	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)
	<-s
	cancel()
	<-confirm
}
