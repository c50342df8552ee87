package game

import (
	"testing"
	"time"
)

func TestAddNPCUpsertKeepsOrder(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.AddNPC("Broker", "fence of secrets")
	s.AddNPC("Widow", "keeps the lighthouse")
	s.AddNPC("Broker", "fence, now hostile")

	if len(s.NPCOrder) != 2 {
		t.Fatalf("NPCOrder = %v, want two names", s.NPCOrder)
	}
	got := s.SummarizeNPCs()
	want := "Broker(fence, now hostile, Active), Widow(keeps the lighthouse, Active)"
	if got != want {
		t.Fatalf("SummarizeNPCs() = %q, want %q", got, want)
	}
}

func TestUpdateNPCStatusAbsent(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	if s.UpdateNPCStatus("Nobody", "dead") {
		t.Fatalf("UpdateNPCStatus() on absent NPC = true, want false")
	}

	s.AddNPC("Broker", "fence")
	if !s.UpdateNPCStatus("Broker", "missing") {
		t.Fatalf("UpdateNPCStatus() = false, want true")
	}
	if s.NPCs["Broker"].Status != "missing" {
		t.Fatalf("Status = %q, want missing", s.NPCs["Broker"].Status)
	}
}

func TestSummarizeNPCsEmpty(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	if got := s.SummarizeNPCs(); got != "no NPCs" {
		t.Fatalf("SummarizeNPCs() = %q, want sentinel", got)
	}
}

func TestRemoveNPC(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Now())
	s.AddNPC("Broker", "fence")
	s.AddNPC("Widow", "lighthouse")

	if !s.RemoveNPC("Broker") {
		t.Fatalf("RemoveNPC() = false, want true")
	}
	if s.RemoveNPC("Broker") {
		t.Fatalf("RemoveNPC() repeat = true, want false")
	}
	if got := s.SummarizeNPCs(); got != "Widow(lighthouse, Active)" {
		t.Fatalf("SummarizeNPCs() = %q", got)
	}
}
