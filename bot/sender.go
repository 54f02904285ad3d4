package bot

import (
	"context"

	"github.com/pkg/errors"
	tele "gopkg.in/telebot.v3"
)

// Sender delivers Markdown messages to Telegram chats.
type Sender struct {
	bot *tele.Bot
}

func NewSender(bot *tele.Bot) *Sender {
	return &Sender{bot: bot}
}

func (s *Sender) Send(ctx context.Context, chatId int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// TODO: disable the chat's subscriptions when the bot is blocked
	_, err := s.bot.Send(tele.ChatID(chatId), text, tele.ModeMarkdown)
	return errors.Wrapf(err, "unable to send message to %v", chatId)
}
