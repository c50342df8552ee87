package game

import (
	"fmt"
	"sort"
	"strings"
)

type JoinOutcome int

const (
	// JoinCreated means a fresh participant record was created.
	JoinCreated JoinOutcome = iota
	// JoinRefreshed means an existing record was kept: display name updated,
	// afk/left status reset to active.
	JoinRefreshed
	// JoinReplaced means force-new retired the old record and created a new
	// one; the retirement event text accompanies this outcome.
	JoinReplaced
	// JoinRejectedLocked means a first-time join hit a locked session.
	JoinRejectedLocked
)

var descriptionClearTokens = map[string]bool{
	"clear": true,
	"reset": true,
	"none":  true,
}

// Join registers actorID. With forceNew an existing record is retired first
// and the returned event text should be appended to the channel's lore log.
func (s *Session) Join(actorID, displayName string, forceNew bool) (JoinOutcome, string) {
	existing, ok := s.Participants[actorID]
	if ok && forceNew {
		event := fmt.Sprintf("%s left the story; a new face takes their place.", existing.Mask)
		delete(s.Participants, actorID)
		s.Participants[actorID] = newParticipant(displayName)
		return JoinReplaced, event
	}
	if ok {
		existing.Mask = displayName
		if existing.Status != StatusActive {
			existing.Status = StatusActive
		}
		return JoinRefreshed, ""
	}
	if s.Settings.SessionLocked && !forceNew {
		return JoinRejectedLocked, ""
	}
	s.Participants[actorID] = newParticipant(displayName)
	return JoinCreated, ""
}

// SetParticipantStatus transitions status; leaving with a reason produces a
// historical event the caller records in the lore log.
func (s *Session) SetParticipantStatus(actorID, status, reason string) (string, bool) {
	p, ok := s.Participants[actorID]
	if !ok {
		return "", false
	}
	p.Status = status
	if status == StatusLeft && strings.TrimSpace(reason) != "" {
		return fmt.Sprintf("%s departed: %s", p.Mask, reason), true
	}
	return "", true
}

// SetDescription appends text to the participant's free-form description,
// or empties it when text is a recognized clear token.
func (s *Session) SetDescription(actorID, text string) bool {
	p, ok := s.Participants[actorID]
	if !ok {
		return false
	}
	if descriptionClearTokens[strings.ToLower(strings.TrimSpace(text))] {
		p.Description = ""
		return true
	}
	if p.Description == "" {
		p.Description = text
	} else {
		p.Description += " | " + text
	}
	return true
}

func (s *Session) SetMask(actorID, mask string) bool {
	p, ok := s.Participants[actorID]
	if !ok {
		return false
	}
	p.Mask = mask
	return true
}

// GrantXP adds experience, resolving any level-ups. It reports the number of
// levels gained.
func (s *Session) GrantXP(actorID string, amount int) (int, bool) {
	p, ok := s.Participants[actorID]
	if !ok {
		return 0, false
	}
	p.XP += amount
	levels := 0
	for p.NextXP > 0 && p.XP >= p.NextXP {
		p.XP -= p.NextXP
		p.Level++
		p.NextXP += nextXPStep
		levels++
	}
	return levels, true
}

// ActiveRoster is a pure projection: comma-joined masks of everyone who has
// not left, tagging afk members.
func (s *Session) ActiveRoster() string {
	var names []string
	for _, id := range s.sortedParticipantIDs() {
		p := s.Participants[id]
		if p.Status == StatusLeft {
			continue
		}
		name := p.Mask
		if p.Status == StatusAFK {
			name += " (afk)"
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "no one is present"
	}
	return strings.Join(names, ", ")
}

// PartyStatus renders the narration context block: mask, stress, status
// effects, and signed NPC relations per present participant.
func (s *Session) PartyStatus() string {
	var lines []string
	for _, id := range s.sortedParticipantIDs() {
		p := s.Participants[id]
		if p.Status == StatusLeft {
			continue
		}
		line := fmt.Sprintf("%s [stress %d]", p.Mask, p.Stats.Stress)
		if len(p.StatusEffects) > 0 {
			line += " {" + strings.Join(p.StatusEffects, ", ") + "}"
		}
		if len(p.Relations) > 0 {
			names := make([]string, 0, len(p.Relations))
			for npc := range p.Relations {
				names = append(names, npc)
			}
			sort.Strings(names)
			rels := make([]string, 0, len(names))
			for _, npc := range names {
				rels = append(rels, fmt.Sprintf("%s:%+d", npc, p.Relations[npc]))
			}
			line += " (" + strings.Join(rels, ", ") + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "the party is empty"
	}
	return strings.Join(lines, "\n")
}

func (s *Session) sortedParticipantIDs() []string {
	ids := make([]string, 0, len(s.Participants))
	for id, p := range s.Participants {
		if p == nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
