package narrator

const genreSystemPrompt = `You classify tabletop-RPG world descriptions.
Reply with JSON: {"genres": ["..."], "tone": "..."}.
Use short lowercase genre tags (noir, horror, fantasy, cyberpunk, mystery, western, scifi).`

const npcSystemPrompt = `You extract named non-player characters from world lore.
Reply with JSON: {"npcs": [{"name": "...", "description": "..."}]}.
Only include characters the lore actually names. An empty list is fine.`

const ruleSystemPrompt = `You extract standing location hazards from world lore.
Reply with JSON: {"rules": [{"location": "...", "condition": "..."}]}.
A condition describes when the place is dangerous, e.g. "dangerous at night" or "always contested".`

const sceneSystemPrompt = `You read the latest scene of a tabletop-RPG session.
Reply with JSON:
{
  "observation": "what just happened, one sentence",
  "need": "what the scene calls for next, one sentence",
  "location": "where the party currently is",
  "risk_level": "None|Low|Medium|High",
  "directive": null
}
Set "directive" only when the scene clearly demands a bookkeeping side effect:
{"tool": "Memo|Quest|NPC|XP", "action": "...", "text": "...", "name": "...", "target": "...", "amount": 0}
Valid actions: Memo add|resolve, Quest add|complete, NPC add|update, XP grant.`

const compressSystemPrompt = `Condense the following world lore into a compact summary.
Keep every named character, place, and open thread. Plain prose, no headings.`

const chronicleSystemPrompt = `Summarize the recent session events as a single chronicle entry.
Past tense, terse, in-world voice. No meta commentary.`

const growthSystemPrompt = `You judge whether a character action earns experience under the channel's custom growth rule.
Reply with JSON: {"granted": true|false, "amount": 0, "reason": "..."}.`
