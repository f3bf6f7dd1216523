package booking

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNewSlotTableGrid(t *testing.T) {
	tests := []struct {
		name string
		cfg  SlotConfig
		want []string
	}{
		{
			name: "hourly",
			cfg:  SlotConfig{Interval: time.Hour, Earliest: "9:00", Latest: "12:00"},
			want: []string{"9:00", "10:00", "11:00", "12:00"},
		},
		{
			name: "half hour with leading zero",
			cfg:  SlotConfig{Interval: 30 * time.Minute, Earliest: "08:30", Latest: "10:00"},
			want: []string{"8:30", "9:00", "9:30", "10:00"},
		},
		{
			name: "single slot",
			cfg:  SlotConfig{Interval: 2 * time.Hour, Earliest: "14:00", Latest: "14:00"},
			want: []string{"14:00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewSlotTable(tt.cfg)
			if err != nil {
				t.Fatalf("NewSlotTable: %v", err)
			}
			if got := table.Labels(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSlotTableRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  SlotConfig
	}{
		{"zero interval", SlotConfig{Interval: 0, Earliest: "9:00", Latest: "10:00"}},
		{"sub-minute interval", SlotConfig{Interval: 90 * time.Second, Earliest: "9:00", Latest: "10:00"}},
		{"bad earliest", SlotConfig{Interval: time.Hour, Earliest: "25:00", Latest: "10:00"}},
		{"inverted window", SlotConfig{Interval: time.Hour, Earliest: "11:00", Latest: "10:00"}},
		{"interval does not divide", SlotConfig{Interval: 45 * time.Minute, Earliest: "9:00", Latest: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSlotTable(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		offset time.Duration
		ok     bool
	}{
		{"9:00", "9:00", 9 * time.Hour, true},
		{"09:05", "9:05", 9*time.Hour + 5*time.Minute, true},
		{"23:59", "23:59", 23*time.Hour + 59*time.Minute, true},
		{"0:00", "0:00", 0, true},
		{"24:00", "", 0, false},
		{"9:60", "", 0, false},
		{"9.00", "", 0, false},
		{" 9:00", "", 0, false},
		{"approve 9:00", "", 0, false},
	}
	for _, tt := range tests {
		got, off, err := ParseLabel(tt.in)
		if tt.ok {
			if err != nil {
				t.Fatalf("ParseLabel(%q): %v", tt.in, err)
			}
			if got != tt.want || off != tt.offset {
				t.Fatalf("ParseLabel(%q) = %q, %s; want %q, %s", tt.in, got, off, tt.want, tt.offset)
			}
			continue
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseLabel(%q) err = %v, want ErrValidation", tt.in, err)
		}
	}
}

func TestSlotTableStartOn(t *testing.T) {
	table, err := NewSlotTable(SlotConfig{Interval: time.Hour, Earliest: "9:00", Latest: "18:00"})
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}
	ref := time.Date(2024, 3, 5, 22, 17, 3, 0, time.UTC)
	got, err := table.StartOn("14:00", ref)
	if err != nil {
		t.Fatalf("StartOn: %v", err)
	}
	want := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartOn = %s, want %s", got, want)
	}
}
