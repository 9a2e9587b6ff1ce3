package bot

import (
	"bytes"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
	tghelpers "github.com/vladvlasov256/YourDutchBot/core/telegram/helpers"
	"github.com/vladvlasov256/YourDutchBot/core/telegram/keyboard"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// renderView delivers a lesson view to the current chat, message by
// message, in order.
func (a *App) renderView(c tele.Context, v *lesson.View) error {
	if v == nil {
		return nil
	}
	for _, msg := range v.Messages {
		var err error
		if msg.VoiceFileID != "" || len(msg.Voice) > 0 {
			err = a.sendVoice(c, msg)
		} else {
			err = sendText(c, msg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sendText(c tele.Context, msg lesson.Message) error {
	if len(msg.Buttons) == 0 {
		return tghelpers.SendMD(c, msg.Text)
	}
	rows := make([][]keyboard.InlineBtn, 0, len(msg.Buttons))
	for _, row := range msg.Buttons {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{
				Text:   b.Label,
				Unique: b.Action,
				Data:   b.Data,
			})
		}
		rows = append(rows, btns)
	}
	return tghelpers.SendMD(c, msg.Text, keyboard.InlineButtonsRows(rows...))
}

// sendVoice sends the listening clip. Sent synchronously, bypassing
// the async dispatcher: the upload response carries the file id that
// lets resumed sessions re-send the identical clip without another
// synthesis call.
func (a *App) sendVoice(c tele.Context, msg lesson.Message) error {
	voice := &tele.Voice{}
	fresh := msg.VoiceFileID == ""
	if fresh {
		voice.File = tele.FromReader(bytes.NewReader(msg.Voice))
		voice.FileName = "lesson.ogg"
	} else {
		voice.File = tele.File{FileID: msg.VoiceFileID}
	}

	sent, err := c.Bot().Send(c.Recipient(), voice)
	if err != nil {
		return err
	}
	if fresh && sent != nil && sent.Voice != nil && c.Sender() != nil {
		ctx := tghelpers.BuildContext(c)
		if err := a.machine.RecordAudioRef(ctx, c.Sender().ID, sent.Voice.FileID); err != nil {
			logger.SVCLesson.Warn("audio ref not recorded",
				slog.String("event", "lesson.audio_ref"),
				slog.Int64("user_id", c.Sender().ID),
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}
