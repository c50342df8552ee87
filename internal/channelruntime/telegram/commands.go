package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kdsk0521/lorekeeper/game"
	"github.com/kdsk0521/lorekeeper/narrator"
)

const helpText = `I keep one persistent story per chat.

Preparation:
/lore <text>   add world lore (or attach a .txt/.md file); /lore clear wipes it
/rules <text>  add table rules; /rules growth <rule> sets the growth rule
/ready         check whether the world is ready to start
/mask <name>   join the story under a mask; /mask new retires your old self
/reset         erase everything (asks for confirmation)

Play:
/start         lock the table and open the first scene
/next          advance the world clock one slot
/status        world and party overview
/info          your own sheet
/desc <text>   extend your description (clear|reset|none to wipe)
/afk /leave /return   presence changes
/mode auto|manual|off whether I narrate replies automatically
/quest add|done <text>   the quest board
/memo add|del <text>     shared notes
/npc [del <name>]        known figures
/xp [mask] <amount>      grant experience directly
/chronicle     recent recorded events; /chronicle summary retells them
/export [all]  download the chronicle as a file
/roll 2d6+1    throw dice (max 20)
/lock /unlock  close or reopen the table

Anything else you write is treated as your character acting in the story.`

func splitCommand(text string) (cmd string, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \n\t")
	if i == -1 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func normalizeSlashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || !strings.HasPrefix(cmd, "/") {
		return ""
	}
	// Allow "/cmd@BotName" variants by stripping "@...".
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

// handle runs one inbound message inside the channel's serial worker. Every
// state change is a full load-mutate-save cycle on the channel session.
func (rt *Runtime) handle(ctx context.Context, j job) {
	channelID := strconv.FormatInt(j.chatID, 10)
	actorID := strconv.FormatInt(j.userID, 10)

	cmd, rest := splitCommand(j.text)
	norm := normalizeSlashCommand(cmd)
	bare := strings.TrimPrefix(norm, "/")
	if norm == "" {
		bare = ""
		rest = strings.TrimSpace(j.text)
	}
	if bare == "system" {
		bare = "rules"
	}
	if j.doc != nil && bare == "" {
		// A bare attachment lands on the lore pile.
		bare = "lore"
	}

	s := rt.sessions.Load(channelID)
	switch s.Gate(actorID, bare) {
	case game.GateRejectLocked:
		rt.reply(ctx, j, "The table is locked mid-story; no new faces can slip in.")
		return
	case game.GateRejectUnknown:
		rt.reply(ctx, j, "You are not part of this story yet. Join with /mask <name>.")
		return
	case game.GateRejectUnprepared:
		rt.reply(ctx, j, "The world is still unformed. Shape it with /lore, then /ready.")
		return
	}

	if j.doc != nil {
		rt.reply(ctx, j, rt.handleAttachment(ctx, j, channelID, bare))
		return
	}

	var out string
	switch bare {
	case "":
		out = rt.handleNarration(ctx, j, s, channelID, actorID, rest)
	case "help":
		out = helpText
	case "mask":
		out = rt.handleMask(ctx, j, s, channelID, actorID, rest)
	case "lore":
		out = rt.handleLore(ctx, s, channelID, rest)
	case "rules":
		out = rt.handleRules(channelID, rest)
	case "ready":
		out = rt.handleReady(ctx, j, s, channelID)
	case "reset":
		out = rt.handleReset(ctx, j, channelID)
	case "start":
		out = rt.handleStart(ctx, j, s, channelID)
	case "lock":
		s.Settings.SessionLocked = true
		rt.save(channelID, s)
		out = "The table is locked. No one new may join."
	case "unlock":
		s.Settings.SessionLocked = false
		rt.save(channelID, s)
		out = "The table is open again."
	case "next":
		out = rt.handleNext(s, channelID)
	case "desc":
		out = rt.handleDesc(s, channelID, actorID, rest)
	case "info":
		out = rt.handleInfo(s, actorID)
	case "status":
		out = rt.handleStatus(s)
	case "afk":
		out = rt.handlePresence(s, channelID, actorID, game.StatusAFK, rest)
	case "leave":
		out = rt.handlePresence(s, channelID, actorID, game.StatusLeft, rest)
	case "return":
		out = rt.handlePresence(s, channelID, actorID, game.StatusActive, rest)
	case "mode":
		out = rt.handleMode(s, channelID, rest)
	case "xp":
		out = rt.handleXP(s, channelID, actorID, rest)
	case "npc":
		out = rt.handleNPC(s, channelID, rest)
	case "quest":
		out = rt.handleQuest(s, channelID, rest)
	case "memo":
		out = rt.handleMemo(s, channelID, rest)
	case "chronicle":
		out = rt.handleChronicle(ctx, j, s, rest)
	case "export":
		out = rt.handleExport(ctx, j, s, channelID, rest)
	case "roll":
		out = rt.handleRoll(rest)
	default:
		out = "I don't know that command. /help lists what I understand."
	}
	rt.reply(ctx, j, out)
}

func (rt *Runtime) save(channelID string, s *game.Session) {
	if err := rt.sessions.Save(channelID, s); err != nil {
		rt.logger.Error("session_save_error", "channel_id", channelID, "error", err.Error())
	}
}

var textAttachmentExts = map[string]bool{
	".txt": true,
	".md":  true,
}

func (rt *Runtime) handleAttachment(ctx context.Context, j job, channelID, target string) string {
	ext := strings.ToLower(filepath.Ext(j.doc.FileName))
	if !textAttachmentExts[ext] {
		return "I can only read plain-text files (.txt or .md)."
	}
	f, err := rt.api.getFile(ctx, j.doc.FileID)
	if err != nil {
		rt.logger.Warn("attachment_get_file_error", "chat_id", j.chatID, "error", err.Error())
		return "I could not fetch that file."
	}
	data, err := rt.api.downloadFile(ctx, f.FilePath, rt.maxBytes)
	if err != nil {
		rt.logger.Warn("attachment_download_error", "chat_id", j.chatID, "error", err.Error())
		return "I could not read that file; it may be too large."
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "That file is empty."
	}
	if target == "rules" {
		if err := rt.texts.AppendRules(channelID, text); err != nil {
			return "Writing the rules failed."
		}
		return fmt.Sprintf("Took in %d characters of rules.", len(text))
	}
	if err := rt.texts.AppendLore(channelID, text); err != nil {
		return "Writing the lore failed."
	}
	return fmt.Sprintf("Took in %d characters of lore. Run /ready when the world is complete.", len(text))
}

func (rt *Runtime) handleMask(ctx context.Context, j job, s *game.Session, channelID, actorID, rest string) string {
	forceNew := strings.EqualFold(rest, "new")
	if forceNew {
		rest = ""
	}
	outcome, event := s.Join(actorID, j.displayName, forceNew)
	if outcome == game.JoinRejectedLocked {
		return "The table is locked mid-story; no new faces can slip in."
	}
	if event != "" {
		if err := rt.texts.AppendLore(channelID, event); err != nil {
			rt.logger.Warn("lore_append_error", "channel_id", channelID, "error", err.Error())
		}
	}
	if rest != "" {
		s.SetMask(actorID, rest)
	}
	rt.save(channelID, s)

	p := s.Participants[actorID]
	switch outcome {
	case game.JoinCreated:
		return fmt.Sprintf("%s steps into the story.", p.Mask)
	case game.JoinReplaced:
		return fmt.Sprintf("%s\n%s steps into the story.", event, p.Mask)
	default:
		if rest != "" {
			return fmt.Sprintf("You now go by %s.", p.Mask)
		}
		return fmt.Sprintf("You are %s.", p.Mask)
	}
}

func (rt *Runtime) handleLore(ctx context.Context, s *game.Session, channelID, rest string) string {
	switch {
	case rest == "":
		if summary, ok := rt.texts.LoreSummary(channelID); ok {
			return "The world so far:\n" + summary
		}
		if lore, ok := rt.texts.Lore(channelID); ok {
			return "The world so far:\n" + lore
		}
		return "No lore yet. Describe your world with /lore <text> or attach a file."
	case strings.EqualFold(rest, "clear"):
		if err := rt.texts.ClearLore(channelID); err != nil {
			return "Clearing the lore failed."
		}
		s.Settings.IsPrepared = false
		rt.save(channelID, s)
		return "The lore is gone. The world must be described again before it can start."
	default:
		if err := rt.texts.AppendLore(channelID, rest); err != nil {
			return "Writing the lore failed."
		}
		return "Noted. Run /ready when the world is complete."
	}
}

func (rt *Runtime) handleRules(channelID, rest string) string {
	sub, arg := splitCommand(rest)
	switch {
	case rest == "":
		rules, explicit := rt.texts.Rules(channelID)
		if !explicit {
			return "Default table rules (override with /rules <text>):\n" + rules
		}
		return "Table rules:\n" + rules
	case strings.EqualFold(rest, "clear"):
		if err := rt.texts.ClearRules(channelID); err != nil {
			return "Clearing the rules failed."
		}
		return "Back to the default rules."
	case strings.EqualFold(sub, "growth"):
		if strings.TrimSpace(arg) == "" {
			if tag, ok := rt.texts.GrowthTag(channelID); ok {
				return "Growth rule: " + tag
			}
			return "No growth rule set. /rules growth <rule> defines when characters earn xp."
		}
		if err := rt.texts.SetGrowthTag(channelID, arg); err != nil {
			return "Writing the growth rule failed."
		}
		return "Growth rule set: " + arg
	default:
		if err := rt.texts.AppendRules(channelID, rest); err != nil {
			return "Writing the rules failed."
		}
		return "The rules have been amended."
	}
}

// handleReady runs the preparation pass: genre classification, NPC and
// location-rule extraction from lore, a compressed lore summary, then the
// readiness report.
func (rt *Runtime) handleReady(ctx context.Context, j job, s *game.Session, channelID string) string {
	lore, loreSet := rt.texts.Lore(channelID)
	_, rulesSet := rt.texts.Rules(channelID)

	if loreSet && rt.narrator != nil {
		stop := rt.startTyping(ctx, j.chatID)
		defer stop()

		if cls := rt.narrator.ClassifyGenres(ctx, lore); cls != nil {
			s.Settings.ActiveGenres = cls.Genres
			s.Settings.CustomTone = cls.Tone
		}
		for _, npc := range rt.narrator.ExtractNPCs(ctx, lore) {
			s.AddNPC(npc.Name, npc.Description)
		}
		if rules := rt.narrator.ExtractLocationRules(ctx, lore); len(rules) > 0 {
			for _, r := range rules {
				s.World.LocationRules[r.Location] = game.LocationRule{Condition: r.Condition}
			}
		}
		if summary := rt.narrator.CompressLore(ctx, lore); summary != "" {
			if err := rt.texts.SetLoreSummary(channelID, summary); err != nil {
				rt.logger.Warn("lore_summary_write_error", "channel_id", channelID, "error", err.Error())
			}
		}
	}

	report := s.CheckPreparation(lore, loreSet, rulesSet)
	rt.save(channelID, s)

	var b strings.Builder
	b.WriteString("Preparation check:\n")
	for _, c := range report.Criteria {
		mark := "✗"
		if c.Passed {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%s %s — %s\n", mark, c.Name, c.Detail)
	}
	if report.Ready {
		b.WriteString("\nThe world is ready. /start opens the first scene.")
	} else {
		b.WriteString("\nNot ready yet.")
	}
	return b.String()
}

// handleReset is the destructive two-phase reset: a warning with a short
// confirmation window, then full erasure of the channel's session and texts.
// Only the requester may confirm.
func (rt *Runtime) handleReset(ctx context.Context, j job, channelID string) string {
	rt.reply(ctx, j, "This erases the whole story: world, party, chronicle, lore. Reply \"yes\" to confirm; silence cancels.")

	ch := rt.confirms.arm(j.chatID, j.userID)
	defer rt.confirms.disarm(j.chatID, j.userID, ch)

	wait := rt.confirmWait
	if wait <= 0 {
		wait = confirmWindow
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case confirmed := <-ch:
		if !confirmed {
			return "Not a yes. The world stands."
		}
	case <-timer.C:
		return "No confirmation arrived. The world stands."
	case <-ctx.Done():
		return ""
	}

	if err := rt.sessions.Delete(channelID); err != nil {
		rt.logger.Error("reset_session_delete_error", "channel_id", channelID, "error", err.Error())
		return "The reset failed partway; try again."
	}
	if err := rt.texts.DeleteAll(channelID); err != nil {
		rt.logger.Error("reset_texts_delete_error", "channel_id", channelID, "error", err.Error())
		return "The reset failed partway; try again."
	}
	rt.react(ctx, j, "👍")
	return "The slate is wiped clean. /lore begins a new world."
}

func (rt *Runtime) handleStart(ctx context.Context, j job, s *game.Session, channelID string) string {
	if s.Settings.SessionLocked {
		return "The story is already underway."
	}
	if !s.StartSession() {
		return "The world is not ready. Run /ready first."
	}

	opening := ""
	if rt.narrator != nil {
		stop := rt.startTyping(ctx, j.chatID)
		opening = rt.narrator.Narrate(ctx, rt.systemPrompt(s, channelID), nil,
			"Open the first scene of the story. Set the place, the hour, and the mood; end on something the party can react to.")
		stop()
	}
	if opening == "" {
		opening = "The story begins. Describe what you do."
	}
	s.AppendTurn("assistant", opening)
	rt.save(channelID, s)
	return opening
}

func (rt *Runtime) handleNext(s *game.Session, channelID string) string {
	report := s.AdvanceTime(rt.roller)
	rt.save(channelID, s)

	var b strings.Builder
	if report.NewDay {
		fmt.Fprintf(&b, "A new day breaks. Day %d, %s. The weather turns %s.\n", report.Day, report.Slot, report.Weather)
	} else {
		fmt.Fprintf(&b, "Day %d, %s. Weather: %s.\n", report.Day, report.Slot, report.Weather)
	}
	fmt.Fprintf(&b, "Doom: %d (%s)", report.Doom, game.DoomLabel(report.Doom))
	if report.DoomDelta > 0 {
		fmt.Fprintf(&b, ", +%d this turn", report.DoomDelta)
	}
	for _, reason := range report.Reasons {
		b.WriteString("\n· " + reason)
	}
	return b.String()
}

func (rt *Runtime) handleDesc(s *game.Session, channelID, actorID, rest string) string {
	if strings.TrimSpace(rest) == "" {
		p := s.Participants[actorID]
		if p == nil || p.Description == "" {
			return "No description yet. /desc <text> adds one."
		}
		return p.Description
	}
	if !s.SetDescription(actorID, rest) {
		return "You are not part of this story yet. Join with /mask <name>."
	}
	rt.save(channelID, s)
	p := s.Participants[actorID]
	if p.Description == "" {
		return "Your description is wiped."
	}
	return "You are now: " + p.Description
}

func (rt *Runtime) handleInfo(s *game.Session, actorID string) string {
	p := s.Participants[actorID]
	if p == nil {
		return "You are not part of this story yet. Join with /mask <name>."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s — level %d (%d/%d xp)\n", p.Mask, p.Level, p.XP, p.NextXP)
	fmt.Fprintf(&b, "str %d · agi %d · wits %d · stress %d\n",
		p.Stats.Strength, p.Stats.Agility, p.Stats.Wits, p.Stats.Stress)
	fmt.Fprintf(&b, "status: %s", p.Status)
	if len(p.StatusEffects) > 0 {
		fmt.Fprintf(&b, " {%s}", strings.Join(p.StatusEffects, ", "))
	}
	if p.Description != "" {
		b.WriteString("\n" + p.Description)
	}
	if len(p.Inventory) > 0 {
		b.WriteString("\ncarrying: " + strings.Join(p.Inventory, ", "))
	}
	return b.String()
}

func (rt *Runtime) handleStatus(s *game.Session) string {
	w := s.World
	var b strings.Builder
	fmt.Fprintf(&b, "Day %d, %s. Weather: %s. Doom: %d (%s).\n",
		w.Day, game.TimeSlots[w.TimeSlot], w.Weather, w.Doom, game.DoomLabel(w.Doom))
	if w.CurrentLocation != "" {
		fmt.Fprintf(&b, "Location: %s", w.CurrentLocation)
		if w.RiskLevel != "" && w.RiskLevel != game.RiskNone {
			fmt.Fprintf(&b, " (risk: %s)", w.RiskLevel)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nParty:\n" + s.PartyStatus())
	if npcs := s.SummarizeNPCs(); npcs != "no NPCs" {
		b.WriteString("\n\nFigures: " + npcs)
	}
	if len(s.Board.Active) > 0 {
		fmt.Fprintf(&b, "\n\nOpen quests: %d", len(s.Board.Active))
	}
	return b.String()
}

func (rt *Runtime) handlePresence(s *game.Session, channelID, actorID, status, reason string) string {
	event, ok := s.SetParticipantStatus(actorID, status, reason)
	if !ok {
		return "You are not part of this story yet. Join with /mask <name>."
	}
	if event != "" {
		if err := rt.texts.AppendLore(channelID, event); err != nil {
			rt.logger.Warn("lore_append_error", "channel_id", channelID, "error", err.Error())
		}
	}
	rt.save(channelID, s)
	p := s.Participants[actorID]
	switch status {
	case game.StatusAFK:
		return fmt.Sprintf("%s fades into the background for a while.", p.Mask)
	case game.StatusLeft:
		if event != "" {
			return event
		}
		return fmt.Sprintf("%s leaves the story.", p.Mask)
	default:
		return fmt.Sprintf("%s is back.", p.Mask)
	}
}

func (rt *Runtime) handleMode(s *game.Session, channelID, rest string) string {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case game.ResponseModeAuto:
		s.Settings.ResponseMode = game.ResponseModeAuto
		s.Settings.BotDisabled = false
		rt.save(channelID, s)
		return "I will narrate every turn."
	case game.ResponseModeManual:
		s.Settings.ResponseMode = game.ResponseModeManual
		s.Settings.BotDisabled = false
		rt.save(channelID, s)
		return "I will only record; narration waits until you ask."
	case "off":
		s.Settings.BotDisabled = true
		rt.save(channelID, s)
		return "I fall silent. /mode auto or /mode manual wakes me."
	case "":
		if s.Settings.BotDisabled {
			return "Response mode: off (auto|manual|off)"
		}
		return "Response mode: " + s.Settings.ResponseMode + " (auto|manual|off)"
	default:
		return "Choose auto, manual, or off."
	}
}

// handleXP is the direct experience grant, the table's own lever next to the
// narrator's earned rulings. "/xp 50" grants yourself; "/xp <mask> 50"
// grants another participant.
func (rt *Runtime) handleXP(s *game.Session, channelID, actorID, rest string) string {
	first, second := splitCommand(rest)
	if first == "" {
		return "Usage: /xp [mask] <amount>"
	}
	target := actorID
	amountArg := first
	if second != "" {
		id, ok := findParticipantByMask(s, first)
		if !ok {
			return "No one here goes by " + first + "."
		}
		target = id
		amountArg = second
	}
	amount, err := strconv.Atoi(amountArg)
	if err != nil || amount <= 0 {
		return "The amount must be a positive number."
	}
	levels, ok := s.GrantXP(target, amount)
	if !ok {
		return "You are not part of this story yet. Join with /mask <name>."
	}
	rt.save(channelID, s)
	p := s.Participants[target]
	out := fmt.Sprintf("✦ %s earns %d xp", p.Mask, amount)
	if levels > 0 {
		out += fmt.Sprintf(" — level %d!", p.Level)
	}
	return out
}

func (rt *Runtime) handleNPC(s *game.Session, channelID, rest string) string {
	sub, arg := splitCommand(rest)
	switch strings.ToLower(sub) {
	case "del", "remove":
		if arg == "" {
			return "Which figure? /npc del <name>"
		}
		if !s.RemoveNPC(arg) {
			return "No figure goes by that name."
		}
		rt.save(channelID, s)
		return arg + " fades from the story."
	default:
		return "Figures: " + s.SummarizeNPCs()
	}
}

func (rt *Runtime) handleQuest(s *game.Session, channelID, rest string) string {
	sub, arg := splitCommand(rest)
	switch strings.ToLower(sub) {
	case "add":
		if arg == "" {
			return "What is the quest? /quest add <text>"
		}
		if !s.Board.AddQuest(arg) {
			return "That quest is already on the board."
		}
		rt.save(channelID, s)
		return "Quest taken: " + arg
	case "done", "complete":
		if arg == "" {
			return "Which quest? /quest done <text>"
		}
		completed, ok := s.Board.CompleteQuest(arg, rt.now())
		if !ok {
			return "No open quest matches that."
		}
		rt.save(channelID, s)
		return "Quest completed: " + completed
	default:
		if len(s.Board.Active) == 0 {
			return "The quest board is empty."
		}
		return "Open quests:\n· " + strings.Join(s.Board.Active, "\n· ")
	}
}

func (rt *Runtime) handleMemo(s *game.Session, channelID, rest string) string {
	sub, arg := splitCommand(rest)
	switch strings.ToLower(sub) {
	case "add":
		if arg == "" {
			return "What should I note? /memo add <text>"
		}
		if !s.Board.AddMemo(arg) {
			return "That note already exists."
		}
		rt.save(channelID, s)
		return "Noted: " + arg
	case "del", "remove":
		if arg == "" {
			return "Which note? /memo del <text>"
		}
		removed, ok := s.Board.RemoveMemo(arg)
		if !ok {
			return "No note matches that."
		}
		rt.save(channelID, s)
		return "Forgotten: " + removed
	default:
		if len(s.Board.Memos) == 0 {
			return "No notes."
		}
		return "Notes:\n· " + strings.Join(s.Board.Memos, "\n· ")
	}
}

func (rt *Runtime) handleChronicle(ctx context.Context, j job, s *game.Session, rest string) string {
	if strings.EqualFold(strings.TrimSpace(rest), "summary") && rt.narrator != nil {
		stop := rt.startTyping(ctx, j.chatID)
		defer stop()
		if summary := rt.narrator.SummarizeChronicle(ctx, historyMessages(s)); summary != "" {
			return summary
		}
		return "The chronicler is silent right now; try again later."
	}
	entries := s.Board.Lore
	if len(entries) == 0 {
		return "The chronicle is empty."
	}
	const recent = 10
	if len(entries) > recent {
		entries = entries[len(entries)-recent:]
	}
	var b strings.Builder
	b.WriteString("Recent chronicle:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "· %s — %s\n", e.Title, e.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (rt *Runtime) handleExport(ctx context.Context, j job, s *game.Session, channelID, rest string) string {
	mode := "incremental"
	if strings.EqualFold(strings.TrimSpace(rest), "all") {
		mode = "all"
	}
	entries := s.Board.ExportIncremental(mode, rt.now())
	if len(entries) == 0 {
		return "Nothing new to export."
	}
	if mode != "all" {
		// The watermark moved; persist it so the next export resumes here.
		rt.save(channelID, s)
	}

	var b strings.Builder
	b.WriteString("# Chronicle\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s\n%s\n\n_%s_\n\n", e.Title, e.Content, e.Timestamp.Format("2006-01-02 15:04"))
	}

	tmp, err := os.CreateTemp("", "chronicle-*.md")
	if err != nil {
		rt.logger.Error("export_tempfile_error", "error", err.Error())
		return "Export failed."
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		return "Export failed."
	}
	if err := tmp.Close(); err != nil {
		return "Export failed."
	}
	caption := fmt.Sprintf("%d chronicle entries", len(entries))
	if err := rt.api.sendDocument(ctx, j.chatID, tmp.Name(), "chronicle.md", caption); err != nil {
		rt.logger.Warn("export_send_error", "chat_id", j.chatID, "error", err.Error())
		return "Sending the export failed."
	}
	return ""
}

func (rt *Runtime) handleRoll(rest string) string {
	result, err := game.RollDice(rest, rt.roller)
	switch {
	case errors.Is(err, game.ErrTooManyDice):
		return fmt.Sprintf("At most %d dice per throw.", game.MaxDiceCount)
	case err != nil:
		return "I can't read that. Try /roll 2d6+1."
	}
	return "🎲 " + result.String()
}

// handleNarration records the player's turn and, in auto mode on an active
// session, produces the scene response: analysis first (location, risk, at
// most one board directive), then prose, then an optional growth ruling.
func (rt *Runtime) handleNarration(ctx context.Context, j job, s *game.Session, channelID, actorID, text string) string {
	p := s.Participants[actorID]
	if p == nil {
		return "You are not part of this story yet. Join with /mask <name>."
	}
	s.AppendTurn("user", p.Mask+": "+text)

	if !s.Settings.SessionLocked {
		rt.save(channelID, s)
		return "The story has not begun. /start opens the first scene."
	}
	if s.Settings.ResponseMode != game.ResponseModeAuto || s.Settings.BotDisabled || rt.narrator == nil {
		rt.save(channelID, s)
		rt.react(ctx, j, "👍")
		return ""
	}

	stop := rt.startTyping(ctx, j.chatID)
	defer stop()

	var extras []string
	if analysis := rt.narrator.AnalyzeScene(ctx, rt.sceneContext(s, channelID, p.Mask, text)); analysis != nil {
		if analysis.Location != "" {
			s.World.CurrentLocation = analysis.Location
		}
		if analysis.RiskLevel != "" {
			s.World.RiskLevel = analysis.RiskLevel
		}
		if analysis.Directive != nil {
			if note := rt.applyDirective(s, analysis.Directive); note != "" {
				extras = append(extras, note)
			}
		}
	}

	prose := rt.narrator.Narrate(ctx, rt.systemPrompt(s, channelID), historyMessages(s),
		fmt.Sprintf("%s acts: %s\nNarrate what happens next.", p.Mask, text))
	if prose == "" {
		rt.save(channelID, s)
		return "The narrator's voice falters. The scene holds; try again in a moment."
	}
	s.AppendTurn("assistant", prose)

	if rule, ok := rt.texts.GrowthTag(channelID); ok {
		if ruling := rt.narrator.JudgeGrowth(ctx, rule, text); ruling != nil && ruling.Granted && ruling.Amount > 0 {
			levels, _ := s.GrantXP(actorID, ruling.Amount)
			note := fmt.Sprintf("✦ %s earns %d xp (%s)", p.Mask, ruling.Amount, ruling.Reason)
			if levels > 0 {
				note += fmt.Sprintf(" — level %d!", p.Level)
			}
			extras = append(extras, note)
		}
	}

	rt.save(channelID, s)
	if len(extras) > 0 {
		prose += "\n\n" + strings.Join(extras, "\n")
	}
	return prose
}

// applyDirective executes one validated board directive and returns the
// player-facing note, or "" when the directive was a no-op.
func (rt *Runtime) applyDirective(s *game.Session, d *narrator.Directive) string {
	now := rt.now()
	switch d.Tool {
	case narrator.ToolMemo:
		switch d.Action {
		case narrator.ActionAdd:
			if s.Board.AddMemo(d.Text) {
				return "📌 noted: " + d.Text
			}
		case narrator.ActionResolve:
			if resolved, ok := s.Board.ResolveMemoAuto(d.Text, now); ok {
				return "📌 resolved: " + resolved
			}
		}
	case narrator.ToolQuest:
		switch d.Action {
		case narrator.ActionAdd:
			if s.Board.AddQuest(d.Text) {
				return "⚔ new quest: " + d.Text
			}
		case narrator.ActionComplete:
			if completed, ok := s.Board.CompleteQuest(d.Text, now); ok {
				return "⚔ quest completed: " + completed
			}
		}
	case narrator.ToolNPC:
		switch d.Action {
		case narrator.ActionAdd:
			s.AddNPC(d.Name, d.Text)
			return "👤 " + d.Name + " enters the story."
		case narrator.ActionUpdate:
			if s.UpdateNPCStatus(d.Name, d.Text) {
				return "👤 " + d.Name + ": " + d.Text
			}
		}
	case narrator.ToolXP:
		if id, ok := findParticipantByMask(s, d.Target); ok {
			if _, granted := s.GrantXP(id, d.Amount); granted {
				return fmt.Sprintf("✦ %s earns %d xp", s.Participants[id].Mask, d.Amount)
			}
		}
	}
	return ""
}

func findParticipantByMask(s *game.Session, mask string) (string, bool) {
	mask = strings.ToLower(strings.TrimSpace(mask))
	if mask == "" {
		return "", false
	}
	for id, p := range s.Participants {
		if p != nil && strings.ToLower(p.Mask) == mask {
			return id, true
		}
	}
	return "", false
}
