package bot

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/vladvlasov256/YourDutchBot/core/telegram/callbacks"
	tghelpers "github.com/vladvlasov256/YourDutchBot/core/telegram/helpers"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// maxVoiceBytes caps the accepted voice note size. Whisper rejects
// files over 25 MB anyway; a lesson answer is a few hundred KB.
const maxVoiceBytes = 20 << 20

// finish renders the operation's view. Expected lesson-flow errors are
// fully handled by their guidance view; only infrastructure errors
// propagate to the transport layer.
func (a *App) finish(c tele.Context, v *lesson.View, err error) error {
	if renderErr := a.renderView(c, v); renderErr != nil {
		return renderErr
	}
	if err != nil && !lesson.IsExpected(err) {
		return err
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	s := c.Sender()
	if s == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	_, _, view, err := a.machine.RegisterUser(ctx, s.ID, s.FirstName)
	return a.finish(c, view, err)
}

func (a *App) handleLesson(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := a.machine.StartLesson(ctx, c.Sender().ID)
	return a.finish(c, view, err)
}

func (a *App) handleStatus(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := a.machine.StatusSummary(ctx, c.Sender().ID)
	return a.finish(c, view, err)
}

func (a *App) handleReset(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := a.machine.ResetLesson(ctx, c.Sender().ID)
	return a.finish(c, view, err)
}

func (a *App) handleSkip(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := a.machine.SkipStage(ctx, c.Sender().ID)
	return a.finish(c, view, err)
}

// handleTopicSelect processes a topic button: payload is the index
// into the offered list.
func (a *App) handleTopicSelect(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	idx, err := callbacks.PayloadInt(c)
	if err != nil {
		view := lesson.GuidanceView(lesson.ErrInvalidSelection)
		return a.finish(c, view, lesson.ErrInvalidSelection)
	}
	view, opErr := a.machine.SelectTopic(ctx, c.Sender().ID, idx)
	return a.finish(c, view, opErr)
}

// handleAnswer processes an answer button: payload is
// "task|question|choice".
func (a *App) handleAnswer(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 3 {
		view := lesson.GuidanceView(lesson.ErrStaleAction)
		return a.finish(c, view, lesson.ErrStaleAction)
	}
	task, err1 := strconv.Atoi(parts[0])
	qi, err2 := strconv.Atoi(parts[1])
	choice := strings.TrimSpace(parts[2])
	if err1 != nil || err2 != nil || choice == "" {
		view := lesson.GuidanceView(lesson.ErrStaleAction)
		return a.finish(c, view, lesson.ErrStaleAction)
	}
	view, opErr := a.machine.SubmitTaskAnswer(ctx, c.Sender().ID, task, qi, choice)
	return a.finish(c, view, opErr)
}

// handleVoice downloads an incoming voice note and submits it as the
// speaking answer.
func (a *App) handleVoice(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Voice == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	rc, err := c.Bot().File(&msg.Voice.File)
	if err != nil {
		return fmt.Errorf("voice download: %w", err)
	}
	defer rc.Close()
	audio, err := io.ReadAll(io.LimitReader(rc, maxVoiceBytes))
	if err != nil {
		return fmt.Errorf("voice read: %w", err)
	}

	view, opErr := a.machine.SubmitSpeakingResponse(ctx, c.Sender().ID, audio)
	return a.finish(c, view, opErr)
}

// handlePush triggers the daily push manually. Admin only; mirrors the
// scheduled HTTP trigger.
func (a *App) handlePush(c tele.Context) error {
	if a.job == nil {
		return tghelpers.SendText(c, "Broadcast is not configured.")
	}
	ctx := tghelpers.BuildContext(c)
	stats, err := a.job.Run(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf(
		"Push finished: %d users, %d sent, %d failed.",
		stats.Total, stats.Sent, stats.Failed,
	))
}
