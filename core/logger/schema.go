package logger

import "strings"

// Level names as written in the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// Known values of the enumerated fields. An unknown status is written as
// given; an unknown outcome is dropped.
var (
	statusValues  = enum("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	outcomeValues = enum("ok", "fail", "cancelled", "rate_limited")
)

// defaultKeyOrder puts the envelope first, then the update identifiers,
// then booking fields and finally errors. Keys not listed follow in
// alphabetical order.
var defaultKeyOrder = strings.Fields(`
	ts level component event status rid ts_unix_nano
	update_id user_id chat_id chat_type handler op cb_key outcome duration_ms
	messages kb count payload username
	mode listen http_code db host port
	slot booking_id owner_id role from state action sessions period pending_count
	err err_code cause retryable attempts backoff_ms rate_limited collapsed repeats
`)

func enum(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return strings.ToUpper(level)
}

// normalizeEnum lowercases v and reports whether it is one of values.
func normalizeEnum(v string, values map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := values[v]
	return v, ok && v != ""
}
