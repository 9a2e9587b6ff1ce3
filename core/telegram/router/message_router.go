package router

import (
	"time"

	tg "github.com/vladvlasov256/YourDutchBot/core/telegram"
	"github.com/vladvlasov256/YourDutchBot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions controls routing for non-command updates.
type MessageOptions struct {
	// Voice handles incoming voice notes.
	Voice tele.HandlerFunc
	// UnknownText handles text that matches no command.
	UnknownText tele.HandlerFunc
}

// MessageRoutes builds handlers for plain text and voice updates. Text
// is matched against registered commands first; voice notes go straight
// to the voice handler.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	voiceHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Voice != nil {
			return handleWithSummary(c, "voice", start, "", "", func() error {
				return opts.Voice(c)
			})
		}
		logHandlerSummary(c, "voice", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnVoice,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(voiceHandler)),
		},
	}
}
