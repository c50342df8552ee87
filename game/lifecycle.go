package game

import "strings"

// Preparation criteria: a channel is ready to start once its lore log
// exists with at least one recognized genre, and a rules text is set.

type PrepCriterion struct {
	Name   string
	Passed bool
	Detail string
}

type PrepReport struct {
	Criteria []PrepCriterion
	Ready    bool
}

// CheckPreparation inspects the channel's long-form texts, updates
// IsPrepared, and reports per-criterion pass/fail. It never fails.
func (s *Session) CheckPreparation(loreText string, loreSet bool, rulesSet bool) PrepReport {
	report := PrepReport{}

	lorePassed := loreSet && strings.TrimSpace(loreText) != ""
	detail := "lore is set"
	if !lorePassed {
		detail = "describe your world with /lore first"
	}
	report.Criteria = append(report.Criteria, PrepCriterion{Name: "lore", Passed: lorePassed, Detail: detail})

	genrePassed := len(s.Settings.ActiveGenres) > 0
	detail = "genre: " + strings.Join(s.Settings.ActiveGenres, ", ")
	if !genrePassed {
		detail = "no genre detected yet"
	}
	report.Criteria = append(report.Criteria, PrepCriterion{Name: "genre", Passed: genrePassed, Detail: detail})

	detail = "rules are set"
	if !rulesSet {
		detail = "default rules will be used; set your own with /rules"
	}
	report.Criteria = append(report.Criteria, PrepCriterion{Name: "rules", Passed: true, Detail: detail})

	report.Ready = lorePassed && genrePassed
	s.Settings.IsPrepared = report.Ready
	return report
}

// StartSession locks the channel for play. It fails without mutation unless
// preparation has passed; on success the caller should request an
// opening-scene narration.
func (s *Session) StartSession() bool {
	if !s.Settings.IsPrepared {
		return false
	}
	s.Settings.SessionLocked = true
	return true
}

// Gatekeeping policy consumed before any command dispatch.

type GateDecision int

const (
	GateAllow GateDecision = iota
	// GateRejectUnknown: the actor has no participant record and asked for
	// something outside the entry allow-list.
	GateRejectUnknown
	// GateRejectLocked: an unknown actor while the session is locked.
	GateRejectLocked
	// GateRejectUnprepared: the channel is still unprepared and the command
	// is not preparation-related.
	GateRejectUnprepared
)

// entryCommands is the fixed allow-list unknown actors may invoke while the
// session is unlocked. The same set doubles as the preparation-phase
// command set.
var entryCommands = map[string]bool{
	"lore":   true,
	"rules":  true,
	"system": true,
	"reset":  true,
	"ready":  true,
	"start":  true,
	"mask":   true,
	"help":   true,
}

func IsEntryCommand(command string) bool {
	return entryCommands[strings.ToLower(strings.TrimSpace(command))]
}

// Gate answers "may this actor run this command now". command is the bare
// command word ("" for free narration).
func (s *Session) Gate(actorID, command string) GateDecision {
	_, known := s.Participants[actorID]
	isEntry := IsEntryCommand(command)

	if !known {
		if s.Settings.SessionLocked {
			return GateRejectLocked
		}
		if !isEntry {
			return GateRejectUnknown
		}
		return GateAllow
	}
	if !s.Settings.IsPrepared && !isEntry {
		return GateRejectUnprepared
	}
	return GateAllow
}
