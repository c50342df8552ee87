package game

import (
	"fmt"
	"strings"
)

const emptyNPCSummary = "no NPCs"

// AddNPC upserts: an existing name is overwritten silently and keeps its
// place in insertion order.
func (s *Session) AddNPC(name, description string) {
	if _, ok := s.NPCs[name]; !ok {
		s.NPCOrder = append(s.NPCOrder, name)
	}
	s.NPCs[name] = &NPC{Description: description, Status: DefaultNPCStatus}
}

// UpdateNPCStatus is a no-op when the NPC is absent.
func (s *Session) UpdateNPCStatus(name, status string) bool {
	npc, ok := s.NPCs[name]
	if !ok {
		return false
	}
	npc.Status = status
	return true
}

func (s *Session) RemoveNPC(name string) bool {
	if _, ok := s.NPCs[name]; !ok {
		return false
	}
	delete(s.NPCs, name)
	for i, n := range s.NPCOrder {
		if n == name {
			s.NPCOrder = append(s.NPCOrder[:i], s.NPCOrder[i+1:]...)
			break
		}
	}
	return true
}

// SummarizeNPCs renders "name(desc, status)" in insertion order for
// narration context.
func (s *Session) SummarizeNPCs() string {
	var parts []string
	for _, name := range s.NPCOrder {
		npc, ok := s.NPCs[name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s, %s)", name, npc.Description, npc.Status))
	}
	if len(parts) == 0 {
		return emptyNPCSummary
	}
	return strings.Join(parts, ", ")
}
