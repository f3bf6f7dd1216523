package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/rentbot/core/telegram"
	"github.com/m3rciful/rentbot/core/telegram/callbacks"
)

// CallbackOptions sets the last-resort handler for unknown callback keys.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute answers every callback query and dispatches it by its unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		// Stop the client spinner whatever the handler does.
		_ = c.Respond()

		key, _ := callbacks.ParseCallbackData(cb)
		attrs := []slog.Attr{slog.String("cb_key", key)}
		h, ok := reg.GetCallback(key)
		if !ok {
			if h = reg.CallbackNotFound(); h == nil {
				h = opts.NotFound
			}
			attrs = append(attrs, slog.String("cause", "not_found"))
		}
		return serve(c, handlerName("callback", key), h, attrs...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
