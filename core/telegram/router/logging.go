// Package router turns the registry into telebot routes. Every route runs
// behind the recover and logger middlewares and ends with one handler.handled line.
package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rentbot/core/logger"
	tghelpers "github.com/m3rciful/rentbot/core/telegram/helpers"
	"github.com/m3rciful/rentbot/core/telegram/middleware"
)

// coded is implemented by errors that carry a stable machine-readable code.
type coded interface{ Code() string }

func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// serve runs fn as handler name and logs the summary line. A nil fn is
// logged as skipped.
func serve(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)

	status := "skip"
	var err error
	if fn != nil {
		if err = fn(c); err != nil {
			status = "fail"
		} else {
			status = "ok"
		}
	}

	msgs, kb := middleware.GetCounters(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}, extras...)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Event(ctx, "tg", level, "handler.handled", attrs...)
	return err
}

func handlerName(prefix, key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		key = "unknown"
	}
	key = strings.ReplaceAll(key, " ", "_")
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func errorCode(err error) string {
	var c coded
	if errors.As(err, &c) && strings.TrimSpace(c.Code()) != "" {
		return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.Code()), " ", "_"))
	}
	return "UNHANDLED"
}
