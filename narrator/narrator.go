// Package narrator wraps the text-generation service. Every call is retried
// a bounded number of times and then degrades to absence: callers must treat
// a nil result as a valid, expected outcome.
package narrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kdsk0521/lorekeeper/internal/retryutil"
	"github.com/kdsk0521/lorekeeper/llm"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

type Narrator struct {
	client   llm.Client
	model    string
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

type Options struct {
	Client   llm.Client
	Model    string
	Logger   *slog.Logger
	Attempts int
	Backoff  time.Duration
}

func New(opts Options) *Narrator {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Narrator{
		client:   opts.Client,
		model:    opts.Model,
		logger:   opts.Logger,
		attempts: attempts,
		backoff:  backoff,
	}
}

// chat runs one request with bounded retry. ok=false means the collaborator
// is unavailable; the caller proceeds without it.
func (n *Narrator) chat(ctx context.Context, name string, req llm.Request) (llm.Result, bool) {
	req.Model = n.model
	var res llm.Result
	err := retryutil.Do(ctx, n.logger, name, n.attempts, n.backoff, func(ctx context.Context) error {
		var callErr error
		res, callErr = n.client.Chat(ctx, req)
		return callErr
	})
	if err != nil {
		if n.logger != nil {
			n.logger.Warn(name+"_unavailable", "error", err.Error())
		}
		return llm.Result{}, false
	}
	return res, true
}

func (n *Narrator) chatJSON(ctx context.Context, name string, system, prompt string, out any) bool {
	res, ok := n.chat(ctx, name, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ForceJSON: true,
	})
	if !ok {
		return false
	}
	raw := extractJSON(res.Text)
	if raw == "" {
		if n.logger != nil {
			n.logger.Warn(name+"_no_json", "text_len", len(res.Text))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		if n.logger != nil {
			n.logger.Warn(name+"_decode_error", "error", err.Error())
		}
		return false
	}
	return true
}

// Narrate produces free prose for a scene turn. An empty string means the
// service was unavailable.
func (n *Narrator) Narrate(ctx context.Context, system string, history []llm.Message, prompt string) string {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	res, ok := n.chat(ctx, "narrate", llm.Request{Messages: messages})
	if !ok {
		return ""
	}
	return strings.TrimSpace(res.Text)
}

type GenreClassification struct {
	Genres []string `json:"genres"`
	Tone   string   `json:"tone"`
}

// ClassifyGenres asks the service to tag the channel's lore with genres and
// an overall tone. Nil means unavailable.
func (n *Narrator) ClassifyGenres(ctx context.Context, lore string) *GenreClassification {
	var out GenreClassification
	if !n.chatJSON(ctx, "classify_genres", genreSystemPrompt, lore, &out) {
		return nil
	}
	if len(out.Genres) == 0 {
		return nil
	}
	return &out
}

type ExtractedNPC struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (n *Narrator) ExtractNPCs(ctx context.Context, lore string) []ExtractedNPC {
	var out struct {
		NPCs []ExtractedNPC `json:"npcs"`
	}
	if !n.chatJSON(ctx, "extract_npcs", npcSystemPrompt, lore, &out) {
		return nil
	}
	return out.NPCs
}

type ExtractedRule struct {
	Location  string `json:"location"`
	Condition string `json:"condition"`
}

func (n *Narrator) ExtractLocationRules(ctx context.Context, lore string) []ExtractedRule {
	var out struct {
		Rules []ExtractedRule `json:"rules"`
	}
	if !n.chatJSON(ctx, "extract_rules", ruleSystemPrompt, lore, &out) {
		return nil
	}
	return out.Rules
}

// SceneAnalysis is the structured read of a live scene.
type SceneAnalysis struct {
	Observation string
	Need        string
	Location    string
	RiskLevel   string
	Directive   *Directive
}

type rawSceneAnalysis struct {
	Observation string          `json:"observation"`
	Need        string          `json:"need"`
	Location    string          `json:"location"`
	RiskLevel   string          `json:"risk_level"`
	Directive   json.RawMessage `json:"directive"`
}

// AnalyzeScene classifies the current scene. A malformed directive is
// dropped with a warning; the rest of the analysis is still returned. Nil
// means the service was unavailable.
func (n *Narrator) AnalyzeScene(ctx context.Context, sceneContext string) *SceneAnalysis {
	var raw rawSceneAnalysis
	if !n.chatJSON(ctx, "analyze_scene", sceneSystemPrompt, sceneContext, &raw) {
		return nil
	}
	analysis := &SceneAnalysis{
		Observation: strings.TrimSpace(raw.Observation),
		Need:        strings.TrimSpace(raw.Need),
		Location:    strings.TrimSpace(raw.Location),
		RiskLevel:   strings.TrimSpace(raw.RiskLevel),
	}
	directive, err := ParseDirective(raw.Directive)
	if err != nil {
		if n.logger != nil {
			n.logger.Warn("scene_directive_rejected", "error", err.Error())
		}
	} else {
		analysis.Directive = directive
	}
	return analysis
}

// CompressLore produces a condensed lore summary, or "" when unavailable.
func (n *Narrator) CompressLore(ctx context.Context, lore string) string {
	res, ok := n.chat(ctx, "compress_lore", llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: compressSystemPrompt},
			{Role: "user", Content: lore},
		},
	})
	if !ok {
		return ""
	}
	return strings.TrimSpace(res.Text)
}

// SummarizeChronicle turns recent history into a chronicle entry body.
func (n *Narrator) SummarizeChronicle(ctx context.Context, history []llm.Message) string {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: chronicleSystemPrompt})
	messages = append(messages, history...)

	res, ok := n.chat(ctx, "summarize_chronicle", llm.Request{Messages: messages})
	if !ok {
		return ""
	}
	return strings.TrimSpace(res.Text)
}

type GrowthRuling struct {
	Granted bool   `json:"granted"`
	Amount  int    `json:"amount"`
	Reason  string `json:"reason"`
}

// JudgeGrowth applies a channel's custom growth rule to an action. Nil means
// unavailable; callers fall back to no grant.
func (n *Narrator) JudgeGrowth(ctx context.Context, growthRule, action string) *GrowthRuling {
	var out GrowthRuling
	prompt := "Rule:\n" + growthRule + "\n\nAction:\n" + action
	if !n.chatJSON(ctx, "judge_growth", growthSystemPrompt, prompt, &out) {
		return nil
	}
	return &out
}
