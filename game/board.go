package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	chronicleEntropyMu sync.Mutex
	chronicleEntropy   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewChronicleID returns a ULID for a chronicle entry; ids sort in
// timestamp order.
func NewChronicleID(now time.Time) string {
	chronicleEntropyMu.Lock()
	defer chronicleEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now.UTC()), chronicleEntropy).String()
}

// AddQuest appends text to the active quest list; an exact duplicate is a
// no-op reported as false.
func (b *Board) AddQuest(text string) bool {
	if containsExact(b.Active, text) {
		return false
	}
	b.Active = append(b.Active, text)
	return true
}

// AddMemo appends a note; an exact duplicate is a no-op reported as false.
func (b *Board) AddMemo(text string) bool {
	if containsExact(b.Memos, text) {
		return false
	}
	b.Memos = append(b.Memos, text)
	return true
}

// CompleteQuest removes the first active quest containing text and records a
// chronicle entry stamped at now. No match reports ("", false) and mutates
// nothing.
func (b *Board) CompleteQuest(text string, now time.Time) (string, bool) {
	idx := firstContaining(b.Active, text)
	if idx < 0 {
		return "", false
	}
	quest := b.Active[idx]
	b.Active = append(b.Active[:idx], b.Active[idx+1:]...)
	b.AppendChronicle("Quest completed", quest, now)
	return quest, true
}

// RemoveMemo deletes the first memo containing text. Unlike ResolveMemoAuto
// it leaves no chronicle trace.
func (b *Board) RemoveMemo(text string) (string, bool) {
	idx := firstContaining(b.Memos, text)
	if idx < 0 {
		return "", false
	}
	memo := b.Memos[idx]
	b.Memos = append(b.Memos[:idx], b.Memos[idx+1:]...)
	return memo, true
}

// ResolveMemoAuto removes the first memo matching text by containment in
// either direction and chronicles the resolution.
func (b *Board) ResolveMemoAuto(text string, now time.Time) (string, bool) {
	idx := -1
	for i, memo := range b.Memos {
		if strings.Contains(memo, text) || strings.Contains(text, memo) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	memo := b.Memos[idx]
	b.Memos = append(b.Memos[:idx], b.Memos[idx+1:]...)
	b.Archive = append(b.Archive, memo)
	b.AppendChronicle("Note resolved", memo, now)
	return memo, true
}

func (b *Board) AppendChronicle(title, content string, now time.Time) ChronicleEntry {
	entry := ChronicleEntry{
		ID:        NewChronicleID(now),
		Title:     title,
		Content:   content,
		Timestamp: now.UTC(),
	}
	b.Lore = append(b.Lore, entry)
	return entry
}

// ExportIncremental returns chronicle entries for mode. Mode "all" is a pure
// read of everything; any other mode returns only entries newer than the
// watermark and then advances the watermark to now, so an immediate repeat
// yields nothing.
func (b *Board) ExportIncremental(mode string, now time.Time) []ChronicleEntry {
	if strings.EqualFold(strings.TrimSpace(mode), "all") {
		out := make([]ChronicleEntry, len(b.Lore))
		copy(out, b.Lore)
		return out
	}
	var out []ChronicleEntry
	for _, entry := range b.Lore {
		if entry.Timestamp.After(b.LastExport) {
			out = append(out, entry)
		}
	}
	b.LastExport = now.UTC()
	return out
}

func containsExact(items []string, text string) bool {
	for _, item := range items {
		if item == text {
			return true
		}
	}
	return false
}

func firstContaining(items []string, text string) int {
	for i, item := range items {
		if strings.Contains(item, text) {
			return i
		}
	}
	return -1
}
