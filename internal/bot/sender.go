package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// telegramSender adapts the bot to the broadcast sender interface.
type telegramSender struct {
	bot *tele.Bot
}

func (s *telegramSender) SendText(_ context.Context, userID int64, text string) error {
	_, err := s.bot.Send(&tele.User{ID: userID}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
