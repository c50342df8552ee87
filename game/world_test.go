package game

import (
	"testing"
	"time"
)

// fixedRoller returns a scripted sequence of values for Intn calls.
type fixedRoller struct {
	values []int
	idx    int
}

func (r *fixedRoller) Intn(n int) int {
	if r.idx >= len(r.values) {
		return 0
	}
	v := r.values[r.idx] % n
	r.idx++
	return v
}

func TestChangeDoomSaturates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		start     int
		delta     int
		want      int
		wantLabel string
	}{
		{"overflow", 95, 500, 100, "catastrophe"},
		{"underflow", 5, -500, 0, "calm"},
		{"calm", 0, 10, 10, "calm"},
		{"ominous", 0, 30, 30, "ominous"},
		{"imminent", 0, 70, 70, "imminent threat"},
		{"dire", 0, 90, 90, "dire"},
		{"exact_max", 99, 1, 100, "catastrophe"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := WorldState{Doom: tc.start}
			got, label := w.ChangeDoom(tc.delta)
			if got != tc.want {
				t.Fatalf("ChangeDoom(%d) doom = %d, want %d", tc.delta, got, tc.want)
			}
			if label != tc.wantLabel {
				t.Fatalf("ChangeDoom(%d) label = %q, want %q", tc.delta, label, tc.wantLabel)
			}
		})
	}
}

func TestAdvanceTimeFullCycle(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.World.TimeSlot = 0
	startDay := s.World.Day

	for i := 0; i < len(TimeSlots); i++ {
		s.AdvanceTime(&fixedRoller{values: []int{0, 0, 0, 0, 0, 0}})
	}

	if s.World.TimeSlot != 0 {
		t.Fatalf("TimeSlot after full cycle = %d, want 0", s.World.TimeSlot)
	}
	if s.World.Day != startDay+1 {
		t.Fatalf("Day after full cycle = %d, want %d", s.World.Day, startDay+1)
	}
}

func TestAdvanceTimeNightContribution(t *testing.T) {
	t.Parallel()

	// noon -> dusk is the first nightish slot.
	s := NewSession(time.Now())
	s.World.TimeSlot = 2
	report := s.AdvanceTime(&fixedRoller{})
	if report.Slot != "dusk" {
		t.Fatalf("Slot = %q, want dusk", report.Slot)
	}
	if report.DoomDelta != 1 {
		t.Fatalf("DoomDelta = %d, want 1", report.DoomDelta)
	}

	// dawn -> morning carries no night contribution.
	s2 := NewSession(time.Now())
	s2.World.TimeSlot = 0
	report2 := s2.AdvanceTime(&fixedRoller{})
	if report2.DoomDelta != 0 {
		t.Fatalf("daytime DoomDelta = %d, want 0", report2.DoomDelta)
	}
}

func TestAdvanceTimeHostilityContribution(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.World.TimeSlot = 0
	s.Join("u1", "Vera", false)
	s.Participants["u1"].Relations["The Broker"] = -10

	// Roller scripted to return 1 for the hostility magnitude: delta 1+1=2.
	report := s.AdvanceTime(&fixedRoller{values: []int{1}})
	if report.DoomDelta != 2 {
		t.Fatalf("DoomDelta = %d, want 2", report.DoomDelta)
	}

	// A participant who left no longer counts.
	s.Participants["u1"].Status = StatusLeft
	s.World.TimeSlot = 0
	report = s.AdvanceTime(&fixedRoller{values: []int{1}})
	if report.DoomDelta != 0 {
		t.Fatalf("DoomDelta with departed participant = %d, want 0", report.DoomDelta)
	}
}

func TestAdvanceTimeRiskContribution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		risk string
		want int
	}{
		{"High", 3},
		{"HIGH danger", 3},
		{"medium", 2},
		{"Low", 0},
		{"None", 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.risk, func(t *testing.T) {
			t.Parallel()
			s := NewSession(time.Now())
			s.World.TimeSlot = 0
			s.World.RiskLevel = tc.risk
			report := s.AdvanceTime(&fixedRoller{})
			if report.DoomDelta != tc.want {
				t.Fatalf("DoomDelta = %d, want %d", report.DoomDelta, tc.want)
			}
		})
	}
}

func TestAdvanceTimeRuleSuppressedByHighRisk(t *testing.T) {
	t.Parallel()

	base := func() *Session {
		s := NewSession(time.Now())
		s.World.TimeSlot = 3 // advances to night
		s.World.CurrentLocation = "the old docks"
		s.World.LocationRules = map[string]LocationRule{
			"docks": {Condition: "dangerous at night"},
		}
		return s
	}

	// Medium risk: +1 night, +2 risk, +1 rule.
	s := base()
	s.World.RiskLevel = "Medium"
	report := s.AdvanceTime(&fixedRoller{})
	if report.DoomDelta != 4 {
		t.Fatalf("medium-risk DoomDelta = %d, want 4", report.DoomDelta)
	}
	if len(report.Reasons) != 3 {
		t.Fatalf("medium-risk reasons = %v, want 3 entries", report.Reasons)
	}

	// High risk suppresses the rule: +1 night, +3 risk only.
	s = base()
	s.World.RiskLevel = "High"
	report = s.AdvanceTime(&fixedRoller{})
	if report.DoomDelta != 4 {
		t.Fatalf("high-risk DoomDelta = %d, want 4", report.DoomDelta)
	}
	if len(report.Reasons) != 2 {
		t.Fatalf("high-risk reasons = %v, want 2 entries", report.Reasons)
	}
}

func TestAdvanceTimeAlwaysRule(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.World.TimeSlot = 0 // advances to morning, not night
	s.World.CurrentLocation = "cursed crypt"
	s.World.LocationRules = map[string]LocationRule{
		"crypt": {Condition: "always haunted"},
	}
	report := s.AdvanceTime(&fixedRoller{})
	if report.DoomDelta != 1 {
		t.Fatalf("DoomDelta = %d, want 1", report.DoomDelta)
	}
}

func TestAdvanceTimeWeatherRerollOnWrap(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.World.TimeSlot = len(TimeSlots) - 1
	s.World.Weather = "clear"
	report := s.AdvanceTime(&fixedRoller{values: []int{4}}) // storm
	if !report.NewDay {
		t.Fatalf("NewDay = false, want true")
	}
	if s.World.Weather != "storm" {
		t.Fatalf("Weather = %q, want storm", s.World.Weather)
	}
}
