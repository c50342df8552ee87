package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreLoadMissingReturnsDefault(t *testing.T) {
	t.Parallel()

	st := NewStore(t.TempDir(), nil)
	s := st.Load("chan-1")

	if s.Settings.IsPrepared || s.Settings.SessionLocked {
		t.Fatalf("fresh session flags = %+v", s.Settings)
	}
	if len(s.Settings.ActiveGenres) != 1 || s.Settings.ActiveGenres[0] != "noir" {
		t.Fatalf("ActiveGenres = %v, want [noir]", s.Settings.ActiveGenres)
	}
	if s.World.Day != 1 {
		t.Fatalf("Day = %d, want 1", s.World.Day)
	}
}

func TestStoreLoadCorruptTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "chan-1.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	st := NewStore(dir, nil)
	s := st.Load("chan-1")
	if s.World.Day != 1 {
		t.Fatalf("corrupt load Day = %d, want default 1", s.World.Day)
	}
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	st := NewStore(t.TempDir(), nil)
	s := NewSession(time.Now())
	s.Join("u1", "Vera", false)
	s.AddNPC("Broker", "fence")
	s.Board.AddQuest("find the ledger")
	s.World.Doom = 42

	if err := st.Save("chan-1", s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := st.Load("chan-1")
	if got.World.Doom != 42 {
		t.Fatalf("Doom = %d, want 42", got.World.Doom)
	}
	if got.Participants["u1"] == nil || got.Participants["u1"].Mask != "Vera" {
		t.Fatalf("participant lost in roundtrip: %+v", got.Participants)
	}
	if got.SummarizeNPCs() != "Broker(fence, Active)" {
		t.Fatalf("NPCs = %q", got.SummarizeNPCs())
	}
	if len(got.Board.Active) != 1 {
		t.Fatalf("Active = %v", got.Board.Active)
	}
}

func TestStoreLoadBackfillsMissingBoardLore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := `{
  "history": [],
  "participants": {},
  "quest_board": {
    "active": ["find the ledger"],
    "memo": ["the broker knows"]
  },
  "world_state": {"day": 3, "doom": 55}
}`
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(raw), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	st := NewStore(dir, nil)
	s := st.Load("old")

	if s.Board.Lore == nil || len(s.Board.Lore) != 0 {
		t.Fatalf("Lore = %v, want back-filled empty sequence", s.Board.Lore)
	}
	if len(s.Board.Active) != 1 || s.Board.Active[0] != "find the ledger" {
		t.Fatalf("Active = %v, sibling field not preserved", s.Board.Active)
	}
	if len(s.Board.Memos) != 1 || s.Board.Memos[0] != "the broker knows" {
		t.Fatalf("Memos = %v, sibling field not preserved", s.Board.Memos)
	}
	if s.World.Day != 3 || s.World.Doom != 55 {
		t.Fatalf("world = day %d doom %d, want preserved values", s.World.Day, s.World.Doom)
	}
	if s.World.RiskLevel != RiskNone || s.World.LocationRules == nil {
		t.Fatalf("world defaults not back-filled: %+v", s.World)
	}
	if s.Settings.ResponseMode != ResponseModeAuto {
		t.Fatalf("ResponseMode = %q, want back-filled auto", s.Settings.ResponseMode)
	}
	if s.SchemaVersion != SchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", s.SchemaVersion, SchemaVersion)
	}
}

func TestStoreLoadBackfillsParticipantSubtrees(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := `{
  "participants": {
    "u1": {"mask": "Vera", "level": 2, "xp": 30}
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(raw), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	st := NewStore(dir, nil)
	s := st.Load("old")

	p := s.Participants["u1"]
	if p == nil {
		t.Fatalf("participant lost")
	}
	if p.Mask != "Vera" || p.Level != 2 || p.XP != 30 {
		t.Fatalf("present fields not preserved: %+v", p)
	}
	if p.Relations == nil || p.Inventory == nil || p.StatusEffects == nil {
		t.Fatalf("participant subtrees not back-filled: %+v", p)
	}
	if p.NextXP != defaultNextXP || p.Status != StatusActive {
		t.Fatalf("participant defaults not back-filled: %+v", p)
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	st := NewStore(t.TempDir(), nil)
	s := NewSession(time.Now())
	s.World.Doom = 10
	if err := st.Save("chan-1", s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Delete("chan-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := st.Load("chan-1"); got.World.Doom != 0 {
		t.Fatalf("Load() after delete Doom = %d, want fresh 0", got.World.Doom)
	}
}
