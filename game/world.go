package game

import (
	"fmt"
	"strings"
)

// TimeSlots is the fixed daily cycle; advancing past the last slot wraps to
// the first and starts a new day.
var TimeSlots = []string{"dawn", "morning", "noon", "dusk", "night", "midnight"}

var Weathers = []string{"clear", "overcast", "rain", "fog", "storm", "snow"}

const DefaultWeather = "clear"

const (
	RiskNone   = "None"
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

const (
	DoomMin = 0
	DoomMax = 100
)

const hostileRelationThreshold = -10

// Roller is the injectable randomness source for the world clock and dice.
type Roller interface {
	Intn(n int) int
}

// AdvanceReport describes one clock advance: the new position plus every
// doom contribution with its user-facing reason.
type AdvanceReport struct {
	Day       int
	Slot      string
	Weather   string
	NewDay    bool
	DoomDelta int
	Doom      int
	Reasons   []string
}

// AdvanceTime moves the session one time slot forward and applies the summed
// doom delta. Randomness (weather re-roll, hostility magnitude) comes from r,
// so the transition is deterministic under a fixed roller.
func (s *Session) AdvanceTime(r Roller) AdvanceReport {
	w := &s.World
	w.TimeSlot++
	report := AdvanceReport{}
	if w.TimeSlot >= len(TimeSlots) {
		w.TimeSlot = 0
		w.Day++
		w.Weather = Weathers[r.Intn(len(Weathers))]
		report.NewDay = true
	}

	slot := TimeSlots[w.TimeSlot]
	delta := 0

	if slotIsNight(w.TimeSlot) {
		delta++
		report.Reasons = append(report.Reasons, "darkness falls")
	}

	if s.hasHostileRelation() {
		n := 1 + r.Intn(2)
		delta += n
		report.Reasons = append(report.Reasons, fmt.Sprintf("a grudge festers (+%d)", n))
	}

	risk := strings.ToLower(w.RiskLevel)
	highRisk := false
	switch {
	case strings.Contains(risk, "high"):
		delta += 3
		highRisk = true
		report.Reasons = append(report.Reasons, "the area is extremely dangerous")
	case strings.Contains(risk, "medium"):
		delta += 2
		report.Reasons = append(report.Reasons, "the area is dangerous")
	}

	// Static location rules are suppressed once live risk already reads
	// high, so the same hazard is not counted twice.
	if !highRisk {
		for name, rule := range w.LocationRules {
			if !strings.Contains(w.CurrentLocation, name) {
				continue
			}
			cond := strings.ToLower(rule.Condition)
			if (strings.Contains(cond, "night") && slotIsNight(w.TimeSlot)) || strings.Contains(cond, "always") {
				delta++
				report.Reasons = append(report.Reasons, "local rule: "+name)
			}
		}
	}

	w.Doom = clampDoom(w.Doom + delta)

	report.Day = w.Day
	report.Slot = slot
	report.Weather = w.Weather
	report.DoomDelta = delta
	report.Doom = w.Doom
	return report
}

// ChangeDoom applies a signed adjustment with saturation and returns the new
// value plus its qualitative label.
func (w *WorldState) ChangeDoom(delta int) (int, string) {
	w.Doom = clampDoom(w.Doom + delta)
	return w.Doom, DoomLabel(w.Doom)
}

func DoomLabel(doom int) string {
	switch {
	case doom < 30:
		return "calm"
	case doom < 70:
		return "ominous"
	case doom < 90:
		return "imminent threat"
	case doom < 100:
		return "dire"
	default:
		return "catastrophe"
	}
}

func clampDoom(v int) int {
	if v < DoomMin {
		return DoomMin
	}
	if v > DoomMax {
		return DoomMax
	}
	return v
}

// slotIsNight holds for the last two slots of the cycle and for the dusk
// slot by name.
func slotIsNight(idx int) bool {
	if idx >= len(TimeSlots)-2 {
		return true
	}
	return TimeSlots[idx] == "dusk"
}

func (s *Session) hasHostileRelation() bool {
	for _, p := range s.Participants {
		if p == nil || p.Status == StatusLeft {
			continue
		}
		for _, score := range p.Relations {
			if score <= hostileRelationThreshold {
				return true
			}
		}
	}
	return false
}
