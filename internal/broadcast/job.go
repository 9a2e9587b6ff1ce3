package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// defaultSendDelay spaces outbound messages to stay under the
// Telegram broadcast rate limit (~30 messages per second).
const defaultSendDelay = 35 * time.Millisecond

// Sender delivers one text message to one user.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string) error
}

// Planner picks the push recipients and the per-user message.
type Planner interface {
	ActiveProfiles(ctx context.Context) ([]lesson.Profile, error)
	BroadcastMessage(ctx context.Context, userID int64) (category, text string, err error)
}

// Stats summarizes one daily push run.
type Stats struct {
	Total      int            `json:"total"`
	Sent       int            `json:"sent"`
	Failed     int            `json:"failed"`
	Categories map[string]int `json:"categories"`
	Duration   string         `json:"duration"`
}

// Job sends the daily morning push to every registered user. One
// user's failure never stops the run; blocked bots and dead chats are
// counted and skipped.
type Job struct {
	planner Planner
	sender  Sender
	delay   time.Duration
}

// NewJob wires a push job. delay <= 0 selects the default spacing.
func NewJob(planner Planner, sender Sender, delay time.Duration) *Job {
	if delay <= 0 {
		delay = defaultSendDelay
	}
	return &Job{planner: planner, sender: sender, delay: delay}
}

// Run executes one push over all registered users.
func (j *Job) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{Categories: make(map[string]int)}

	profiles, err := j.planner.ActiveProfiles(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = len(profiles)

	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			stats.Duration = logger.RoundMS(time.Since(start)).String()
			return stats, err
		}
		if i > 0 {
			time.Sleep(j.delay)
		}

		category, text, err := j.planner.BroadcastMessage(ctx, p.TelegramID)
		if err != nil {
			stats.Failed++
			logger.SVCBroadcast.Warn("push planning failed",
				slog.String("event", "broadcast.plan"),
				slog.Int64("user_id", p.TelegramID),
				slog.String("err", err.Error()),
			)
			continue
		}
		if err := j.sender.SendText(ctx, p.TelegramID, text); err != nil {
			stats.Failed++
			logger.SVCBroadcast.Warn("push send failed",
				slog.String("event", "broadcast.send"),
				slog.Int64("user_id", p.TelegramID),
				slog.String("err", err.Error()),
				slog.String("err_code", "DELIVERY_FAILURE"),
			)
			continue
		}
		stats.Sent++
		stats.Categories[category]++
	}

	stats.Duration = logger.RoundMS(time.Since(start)).String()
	logger.SVCBroadcast.Info("daily push finished",
		slog.String("event", "broadcast.done"),
		slog.Int("users", stats.Total),
		slog.Int("sent", stats.Sent),
		slog.Int("failed", stats.Failed),
	)
	return stats, nil
}
