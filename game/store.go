package game

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kdsk0521/lorekeeper/internal/fsstore"
)

// Store persists one Session document per channel. Loads never fail on
// missing or corrupt records: both degrade to a fresh default session, which
// makes every caller's load-mutate-save cycle total.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (st *Store) Load(channelID string) *Session {
	now := time.Now()
	var s Session
	found, err := fsstore.ReadJSON(st.path(channelID), &s)
	if err != nil {
		if st.logger != nil {
			st.logger.Warn("session_load_corrupt", "channel_id", channelID, "error", err.Error())
		}
		return NewSession(now)
	}
	if !found {
		return NewSession(now)
	}
	migrate(&s)
	return &s
}

func (st *Store) Save(channelID string, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	return fsstore.WriteJSONAtomic(st.path(channelID), s, fsstore.FileOptions{})
}

// Delete removes the persisted record; part of the destructive reset
// protocol only.
func (st *Store) Delete(channelID string) error {
	return fsstore.Remove(st.path(channelID))
}

func (st *Store) path(channelID string) string {
	return filepath.Join(st.dir, channelID+".json")
}

// migrate back-fills structurally missing sub-trees of older records with
// defaults, preserving every field that is present, and stamps the record
// with the current schema version before any component touches it.
func migrate(s *Session) {
	if s.Participants == nil {
		s.Participants = map[string]*Participant{}
	}
	for _, p := range s.Participants {
		if p == nil {
			continue
		}
		if p.Relations == nil {
			p.Relations = map[string]int{}
		}
		if p.Inventory == nil {
			p.Inventory = []string{}
		}
		if p.StatusEffects == nil {
			p.StatusEffects = []string{}
		}
		if p.Level <= 0 {
			p.Level = 1
		}
		if p.NextXP <= 0 {
			p.NextXP = defaultNextXP
		}
		if p.Status == "" {
			p.Status = StatusActive
		}
	}
	if s.NPCs == nil {
		s.NPCs = map[string]*NPC{}
	}
	if s.NPCOrder == nil {
		s.NPCOrder = make([]string, 0, len(s.NPCs))
		for name := range s.NPCs {
			s.NPCOrder = append(s.NPCOrder, name)
		}
	}
	if s.Settings.ResponseMode == "" {
		s.Settings.ResponseMode = ResponseModeAuto
	}
	if s.Settings.ActiveGenres == nil {
		s.Settings.ActiveGenres = []string{defaultGenre}
	}
	if s.World.Day < 1 {
		s.World.Day = 1
	}
	if s.World.TimeSlot < 0 || s.World.TimeSlot >= len(TimeSlots) {
		s.World.TimeSlot = 0
	}
	if s.World.Weather == "" {
		s.World.Weather = DefaultWeather
	}
	if s.World.RiskLevel == "" {
		s.World.RiskLevel = RiskNone
	}
	if s.World.LocationRules == nil {
		s.World.LocationRules = map[string]LocationRule{}
	}
	s.World.Doom = clampDoom(s.World.Doom)
	if s.Board.Active == nil {
		s.Board.Active = []string{}
	}
	if s.Board.Memos == nil {
		s.Board.Memos = []string{}
	}
	if s.Board.Archive == nil {
		s.Board.Archive = []string{}
	}
	if s.Board.Lore == nil {
		s.Board.Lore = []ChronicleEntry{}
	}
	if len(s.History) > HistoryCap {
		s.History = s.History[len(s.History)-HistoryCap:]
	}
	s.SchemaVersion = SchemaVersion
}
