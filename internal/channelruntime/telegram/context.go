package telegram

import (
	"fmt"
	"strings"

	"github.com/kdsk0521/lorekeeper/game"
	"github.com/kdsk0521/lorekeeper/llm"
)

// systemPrompt assembles the narrator's standing instructions for a channel:
// genre and tone, the lore (compressed when a summary exists), the table
// rules, and the current world position.
func (rt *Runtime) systemPrompt(s *game.Session, channelID string) string {
	var b strings.Builder

	b.WriteString("You are the narrator of a persistent collaborative story.\n")
	if len(s.Settings.ActiveGenres) > 0 {
		fmt.Fprintf(&b, "Genre: %s.", strings.Join(s.Settings.ActiveGenres, ", "))
		if s.Settings.CustomTone != "" {
			fmt.Fprintf(&b, " Tone: %s.", s.Settings.CustomTone)
		}
		b.WriteString("\n")
	}

	lore, ok := rt.texts.LoreSummary(channelID)
	if !ok {
		lore, _ = rt.texts.Lore(channelID)
	}
	if lore != "" {
		b.WriteString("\nWorld:\n" + lore + "\n")
	}

	rules, _ := rt.texts.Rules(channelID)
	b.WriteString("\nTable rules:\n" + rules + "\n")

	b.WriteString("\n" + worldLine(s) + "\n")
	b.WriteString("Present: " + s.ActiveRoster() + "\n")

	b.WriteString("\nNarrate in second person plural, a few paragraphs at most. Never decide for the players; end on something they can react to.")
	return b.String()
}

// sceneContext is the compact snapshot fed to scene analysis. It favors
// structured state over prose so the classifier stays on the rails.
func (rt *Runtime) sceneContext(s *game.Session, channelID, mask, action string) string {
	var b strings.Builder

	b.WriteString(worldLine(s) + "\n")
	b.WriteString("Party:\n" + s.PartyStatus() + "\n")
	b.WriteString("Figures: " + s.SummarizeNPCs() + "\n")
	if len(s.Board.Active) > 0 {
		b.WriteString("Open quests: " + strings.Join(s.Board.Active, "; ") + "\n")
	}
	if len(s.Board.Memos) > 0 {
		b.WriteString("Notes: " + strings.Join(s.Board.Memos, "; ") + "\n")
	}

	const window = 6
	history := s.History
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) > 0 {
		b.WriteString("\nRecent turns:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "[%s] %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&b, "\n%s acts: %s", mask, action)
	return b.String()
}

func worldLine(s *game.Session) string {
	w := s.World
	line := fmt.Sprintf("Day %d, %s, %s. Doom %d (%s).",
		w.Day, game.TimeSlots[w.TimeSlot], w.Weather, w.Doom, game.DoomLabel(w.Doom))
	if w.CurrentLocation != "" {
		line += " At: " + w.CurrentLocation + "."
	}
	return line
}

// historyMessages converts the session turn log into chat messages for the
// narrator, newest last.
func historyMessages(s *game.Session) []llm.Message {
	msgs := make([]llm.Message, 0, len(s.History))
	for _, turn := range s.History {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Content})
	}
	return msgs
}
