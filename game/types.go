// Package game owns the per-channel session state: the participant and NPC
// registries, the quest/memo/chronicle board, the world clock with its doom
// meter, and the lifecycle rules that gate every mutation.
package game

import "time"

const (
	// HistoryCap bounds the session turn log; the oldest turns are evicted.
	HistoryCap = 40

	SchemaVersion = 1

	defaultGenre  = "noir"
	defaultNextXP = 100
	nextXPStep    = 50
)

const (
	StatusActive = "active"
	StatusAFK    = "afk"
	StatusLeft   = "left"
)

const (
	ResponseModeAuto   = "auto"
	ResponseModeManual = "manual"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Stats struct {
	Strength int `json:"strength"`
	Agility  int `json:"agility"`
	Wits     int `json:"wits"`
	Stress   int `json:"stress"`
}

type Participant struct {
	Mask          string         `json:"mask"`
	Level         int            `json:"level"`
	XP            int            `json:"xp"`
	NextXP        int            `json:"next_xp"`
	Stats         Stats          `json:"stats"`
	Relations     map[string]int `json:"relations"`
	Inventory     []string       `json:"inventory"`
	StatusEffects []string       `json:"status_effects"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
}

type NPC struct {
	Description string `json:"description"`
	Status      string `json:"status"`
}

const DefaultNPCStatus = "Active"

type Settings struct {
	ResponseMode  string   `json:"response_mode"`
	ActiveGenres  []string `json:"active_genres"`
	CustomTone    string   `json:"custom_tone,omitempty"`
	SessionLocked bool     `json:"session_locked"`
	BotDisabled   bool     `json:"bot_disabled"`
	IsPrepared    bool     `json:"is_prepared"`
}

type LocationRule struct {
	Condition string `json:"condition"`
}

type WorldState struct {
	Day             int                     `json:"day"`
	TimeSlot        int                     `json:"time_slot"`
	Weather         string                  `json:"weather"`
	Doom            int                     `json:"doom"`
	CurrentLocation string                  `json:"current_location,omitempty"`
	RiskLevel       string                  `json:"risk_level"`
	LocationRules   map[string]LocationRule `json:"location_rules"`
}

type ChronicleEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Board struct {
	Active     []string         `json:"active"`
	Memos      []string         `json:"memo"`
	Archive    []string         `json:"archive"`
	Lore       []ChronicleEntry `json:"lore"`
	LastExport time.Time        `json:"last_export_time"`
}

// Session is the root aggregate for one channel. Nothing outside the store
// holds a writable reference across calls: every mutation is a full
// load-mutate-save cycle.
type Session struct {
	SchemaVersion int                     `json:"schema_version"`
	History       []Turn                  `json:"history"`
	Participants  map[string]*Participant `json:"participants"`
	NPCs          map[string]*NPC         `json:"npcs"`
	NPCOrder      []string                `json:"npc_order"`
	Settings      Settings                `json:"settings"`
	World         WorldState              `json:"world_state"`
	Board         Board                   `json:"quest_board"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func NewSession(now time.Time) *Session {
	return &Session{
		SchemaVersion: SchemaVersion,
		Participants:  map[string]*Participant{},
		NPCs:          map[string]*NPC{},
		NPCOrder:      []string{},
		Settings: Settings{
			ResponseMode: ResponseModeAuto,
			ActiveGenres: []string{defaultGenre},
		},
		World: WorldState{
			Day:           1,
			TimeSlot:      0,
			Weather:       DefaultWeather,
			RiskLevel:     RiskNone,
			LocationRules: map[string]LocationRule{},
		},
		Board: Board{
			Active:  []string{},
			Memos:   []string{},
			Archive: []string{},
			Lore:    []ChronicleEntry{},
		},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// AppendTurn records a conversation turn, evicting the oldest once the cap
// is exceeded.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if len(s.History) > HistoryCap {
		s.History = s.History[len(s.History)-HistoryCap:]
	}
}

func newParticipant(displayName string) *Participant {
	return &Participant{
		Mask:          displayName,
		Level:         1,
		XP:            0,
		NextXP:        defaultNextXP,
		Stats:         Stats{Strength: 10, Agility: 10, Wits: 10, Stress: 0},
		Relations:     map[string]int{},
		Inventory:     []string{},
		StatusEffects: []string{},
		Status:        StatusActive,
	}
}
