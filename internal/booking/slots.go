package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// slotPattern accepts H:MM and HH:MM in 24h notation.
var slotPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// SlotConfig describes the daily booking grid.
type SlotConfig struct {
	Interval time.Duration
	Earliest string
	Latest   string
}

// SlotTable is the fixed daily grid of bookable slots.
type SlotTable struct {
	interval time.Duration
	labels   []string
	offsets  map[string]time.Duration
}

// IsLabel reports whether s looks like a slot label.
func IsLabel(s string) bool {
	return slotPattern.MatchString(s)
}

// ParseLabel validates s and returns its canonical label ("9:00") and offset from midnight.
func ParseLabel(s string) (string, time.Duration, error) {
	m := slotPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, fmt.Errorf("%w: slot label %q", ErrValidation, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	offset := time.Duration(h)*time.Hour + time.Duration(min)*time.Minute
	return formatLabel(offset), offset, nil
}

func formatLabel(offset time.Duration) string {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("%d:%02d", h, m)
}

// NewSlotTable builds the grid from earliest to latest inclusive at the given interval.
func NewSlotTable(cfg SlotConfig) (*SlotTable, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("slot table: interval must be > 0")
	}
	if cfg.Interval%time.Minute != 0 {
		return nil, fmt.Errorf("slot table: interval must be whole minutes")
	}
	_, from, err := ParseLabel(cfg.Earliest)
	if err != nil {
		return nil, fmt.Errorf("slot table: earliest: %w", err)
	}
	_, to, err := ParseLabel(cfg.Latest)
	if err != nil {
		return nil, fmt.Errorf("slot table: latest: %w", err)
	}
	if to < from {
		return nil, fmt.Errorf("slot table: latest %s is before earliest %s", cfg.Latest, cfg.Earliest)
	}
	if (to-from)%cfg.Interval != 0 {
		return nil, fmt.Errorf("slot table: interval %s does not divide window %s-%s", cfg.Interval, cfg.Earliest, cfg.Latest)
	}

	t := &SlotTable{
		interval: cfg.Interval,
		offsets:  make(map[string]time.Duration),
	}
	for off := from; off <= to; off += cfg.Interval {
		label := formatLabel(off)
		t.labels = append(t.labels, label)
		t.offsets[label] = off
	}
	return t, nil
}

// Interval returns the length of one slot.
func (t *SlotTable) Interval() time.Duration {
	return t.interval
}

// Labels returns the grid in chronological order.
func (t *SlotTable) Labels() []string {
	return append([]string(nil), t.labels...)
}

// Contains reports whether label (canonical form) is on the grid.
func (t *SlotTable) Contains(label string) bool {
	_, ok := t.offsets[label]
	return ok
}

// StartOn returns the wall-clock start of label on the calendar day of ref.
func (t *SlotTable) StartOn(label string, ref time.Time) (time.Time, error) {
	_, off, err := ParseLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := ref.Date()
	h := int(off / time.Hour)
	min := int((off % time.Hour) / time.Minute)
	return time.Date(y, m, d, h, min, 0, 0, ref.Location()), nil
}
