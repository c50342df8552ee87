package narrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Directives are the only side effects the text-generation service may ask
// for. The vocabulary is closed: the tool and action are validated at this
// boundary and unrecognized combinations are rejected, not ignored.

var ErrUnknownDirective = errors.New("unknown directive")

type Tool string

const (
	ToolMemo  Tool = "Memo"
	ToolQuest Tool = "Quest"
	ToolNPC   Tool = "NPC"
	ToolXP    Tool = "XP"
)

type Action string

const (
	ActionAdd      Action = "add"
	ActionComplete Action = "complete"
	ActionResolve  Action = "resolve"
	ActionUpdate   Action = "update"
	ActionGrant    Action = "grant"
)

var validActions = map[Tool]map[Action]bool{
	ToolMemo:  {ActionAdd: true, ActionResolve: true},
	ToolQuest: {ActionAdd: true, ActionComplete: true},
	ToolNPC:   {ActionAdd: true, ActionUpdate: true},
	ToolXP:    {ActionGrant: true},
}

type Directive struct {
	Tool   Tool   `json:"tool"`
	Action Action `json:"action"`
	// Text carries the memo/quest wording, the NPC description, or the NPC
	// status, depending on the tool and action.
	Text string `json:"text,omitempty"`
	// Name is the NPC name for NPC directives.
	Name string `json:"name,omitempty"`
	// Target is the participant mask for XP grants.
	Target string `json:"target,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

type rawDirective struct {
	Tool   string `json:"tool"`
	Action string `json:"action"`
	Text   string `json:"text"`
	Name   string `json:"name"`
	Target string `json:"target"`
	Amount int    `json:"amount"`
}

// ParseDirective validates raw JSON against the closed vocabulary.
func ParseDirective(raw json.RawMessage) (*Directive, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rd rawDirective
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDirective, err)
	}
	if strings.TrimSpace(rd.Tool) == "" {
		return nil, nil
	}

	tool, ok := canonicalTool(rd.Tool)
	if !ok {
		return nil, fmt.Errorf("%w: tool %q", ErrUnknownDirective, rd.Tool)
	}
	action := Action(strings.ToLower(strings.TrimSpace(rd.Action)))
	if !validActions[tool][action] {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownDirective, tool, rd.Action)
	}

	d := &Directive{
		Tool:   tool,
		Action: action,
		Text:   strings.TrimSpace(rd.Text),
		Name:   strings.TrimSpace(rd.Name),
		Target: strings.TrimSpace(rd.Target),
		Amount: rd.Amount,
	}
	switch tool {
	case ToolMemo, ToolQuest:
		if d.Text == "" {
			return nil, fmt.Errorf("%w: %s/%s without text", ErrUnknownDirective, tool, action)
		}
	case ToolNPC:
		if d.Name == "" {
			return nil, fmt.Errorf("%w: NPC directive without name", ErrUnknownDirective)
		}
	case ToolXP:
		if d.Amount <= 0 {
			return nil, fmt.Errorf("%w: XP grant with amount %d", ErrUnknownDirective, d.Amount)
		}
	}
	return d, nil
}

func canonicalTool(s string) (Tool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "memo":
		return ToolMemo, true
	case "quest":
		return ToolQuest, true
	case "npc":
		return ToolNPC, true
	case "xp":
		return ToolXP, true
	default:
		return "", false
	}
}
