package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level  slog.Leveler
	writer *asyncWriter
	// errWriter additionally receives ERROR lines when set.
	errWriter *asyncWriter
	format    logFormat
	keyOrder  []string
	// stacks keeps "stack" attributes; otherwise they are dropped.
	stacks bool
}

// structuredHandler renders every record as one flat line. Groups become
// dotted key prefixes.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	f := h.collect(ctx, r)
	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = f.json(h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = f.kv(h.cfg.keyOrder)
	}
	line = append(line, '\n')

	if h.cfg.errWriter != nil && r.Level >= slog.LevelError {
		if err := h.cfg.errWriter.Write(line); err != nil {
			return err
		}
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// collect builds the field set of r: handler attrs, record attrs, then the
// update identifiers from ctx for keys the record did not set itself.
func (h *structuredHandler) collect(ctx context.Context, r slog.Record) fields {
	ts := r.Time.UTC()
	f := fields{
		"ts":    ts.Truncate(time.Millisecond).Format(timeFormatMillis),
		"level": normalizeLevel(r.Level.String()),
	}
	if h.cfg.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		f.add(h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	if ctx != nil {
		meta := MetaFrom(ctx)
		f.fallback("rid", RIDFrom(ctx), RIDFrom(ctx) != "")
		f.fallback("user_id", meta.UserID, meta.UserID != 0)
		f.fallback("update_id", meta.UpdateID, meta.UpdateID != 0)
		f.fallback("chat_id", meta.ChatID, meta.ChatID != 0)
		f.fallback("handler", HandlerFrom(ctx), HandlerFrom(ctx) != "")
	}

	event := r.Message
	if event == "" {
		event = "unknown"
	}
	f.fallback("event", event, f.str("event") == "")
	f.fallback("component", "app", f.str("component") == "")

	if !h.cfg.stacks {
		delete(f, "stack")
	}
	f.normalize()
	return f
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// fields is one log line before encoding.
type fields map[string]any

// add stores attr under prefix, flattening groups.
func (f fields) add(prefix string, attr slog.Attr) {
	key := joinKey(prefix, attr.Key)
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plainValue(key, v); ok {
		f[k] = val
	}
}

// fallback sets key to v when cond holds and the record left key unset or empty.
func (f fields) fallback(key string, v any, cond bool) {
	if !cond {
		return
	}
	if cur, ok := f[key]; ok && cur != "" {
		return
	}
	f[key] = v
}

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// normalize canonicalizes level, status and outcome and drops empty values.
func (f fields) normalize() {
	f["level"] = normalizeLevel(f.str("level"))
	if s := f.str("status"); s != "" {
		if v, ok := normalizeEnum(s, statusValues); ok {
			f["status"] = v
		}
	}
	if o := f.str("outcome"); o != "" {
		if v, ok := normalizeEnum(o, outcomeValues); ok {
			f["outcome"] = v
		} else {
			delete(f, "outcome")
		}
	}
	for k, v := range f {
		switch x := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if x == "" {
				delete(f, k)
			}
		}
	}
}

// plainValue converts v into a JSON-friendly value. Durations are written in
// whole milliseconds under a key ending in _ms.
func plainValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationAttr(key, v.Duration())
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationAttr(key, x)
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func durationAttr(key string, d time.Duration) (string, any, bool) {
	if !strings.HasSuffix(key, "_ms") {
		key += "_ms"
	}
	return key, RoundMS(d).Milliseconds(), true
}
