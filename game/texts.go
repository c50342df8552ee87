package game

import (
	"path/filepath"
	"strings"

	"github.com/kdsk0521/lorekeeper/internal/fsstore"
)

// DefaultRules is the rules text used when a channel has none of its own.
const DefaultRules = `Actions are narrated in plain language.
Contested actions are resolved with a d20 against the keeper's difficulty.
Stress accumulates under pressure and fades during rest.`

// TextStore holds the per-channel long-form texts that sit beside the
// session record: the lore log, the rules text, and the optional lore
// summary and growth-system tag. Appends join with a newline; a missing
// lore file is the "unset" sentinel.
type TextStore struct {
	dir string
}

func NewTextStore(dir string) *TextStore {
	return &TextStore{dir: dir}
}

func (t *TextStore) Lore(channelID string) (string, bool) {
	return t.read(channelID, "lore.md")
}

func (t *TextStore) AppendLore(channelID, text string) error {
	return t.append(channelID, "lore.md", text)
}

func (t *TextStore) ClearLore(channelID string) error {
	return fsstore.Remove(t.path(channelID, "lore.md"))
}

// Rules returns the channel rules text, falling back to DefaultRules when
// unset.
func (t *TextStore) Rules(channelID string) (string, bool) {
	text, found := t.read(channelID, "rules.md")
	if !found {
		return DefaultRules, false
	}
	return text, true
}

func (t *TextStore) AppendRules(channelID, text string) error {
	return t.append(channelID, "rules.md", text)
}

func (t *TextStore) ClearRules(channelID string) error {
	return fsstore.Remove(t.path(channelID, "rules.md"))
}

func (t *TextStore) LoreSummary(channelID string) (string, bool) {
	return t.read(channelID, "summary.md")
}

func (t *TextStore) SetLoreSummary(channelID, text string) error {
	return fsstore.WriteTextAtomic(t.path(channelID, "summary.md"), text, fsstore.FileOptions{})
}

func (t *TextStore) GrowthTag(channelID string) (string, bool) {
	return t.read(channelID, "growth.txt")
}

func (t *TextStore) SetGrowthTag(channelID, tag string) error {
	return fsstore.WriteTextAtomic(t.path(channelID, "growth.txt"), tag, fsstore.FileOptions{})
}

// DeleteAll erases every long-form text for the channel; reset protocol
// only.
func (t *TextStore) DeleteAll(channelID string) error {
	for _, name := range []string{"lore.md", "rules.md", "summary.md", "growth.txt"} {
		if err := fsstore.Remove(t.path(channelID, name)); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextStore) read(channelID, name string) (string, bool) {
	text, found, err := fsstore.ReadText(t.path(channelID, name))
	if err != nil || !found {
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

func (t *TextStore) append(channelID, name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	existing, _, err := fsstore.ReadText(t.path(channelID, name))
	if err != nil {
		existing = ""
	}
	existing = strings.TrimSpace(existing)
	if existing != "" {
		text = existing + "\n" + text
	}
	return fsstore.WriteTextAtomic(t.path(channelID, name), text, fsstore.FileOptions{})
}

func (t *TextStore) path(channelID, name string) string {
	return filepath.Join(t.dir, channelID, name)
}
