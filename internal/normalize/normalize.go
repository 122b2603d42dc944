// Package normalize canonicalizes raw roster and player records before
// they enter the ledger. Normalization recovers from messy input with
// defaults and warnings; it never aborts an ingest on its own.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albapepper/league-ledger/internal/model"
)

// DefaultStarterSlots is the fixed slot order assigned when a side arrives
// with starters but no explicit slot labels. Overflow entries become FLEX.
var DefaultStarterSlots = []string{"QB", "RB", "RB", "WR", "WR", "TE", "FLEX", "D/ST", "K"}

// Position canonicalizes a position label: any case/spacing variant of
// D/ST collapses to the literal "D/ST", everything else is uppercased.
func Position(raw string) string {
	t := strings.TrimSpace(raw)
	folded := strings.ToUpper(strings.ReplaceAll(t, " ", ""))
	if folded == "DST" || folded == "D/ST" {
		return "D/ST"
	}
	return strings.ToUpper(t)
}

// Opponent uppercases an opponent reference, preserving the leading "@"
// that marks an away game.
func Opponent(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "@") {
		return "@" + strings.ToUpper(t[1:])
	}
	return strings.ToUpper(t)
}

// Player canonicalizes a player snapshot. Idempotent.
func Player(p model.Player) model.Player {
	p.Name = strings.TrimSpace(p.Name)
	p.Team = strings.ToUpper(strings.TrimSpace(p.Team))
	p.Position = Position(p.Position)
	p.Opponent = Opponent(p.Opponent)
	p.Proj = p.Proj.Round2()
	p.Fpts = p.Fpts.Round2()
	return p
}

// IsStub reports whether an entry is a placeholder with no real player
// assigned. The rule is uniform across all ingest paths: an empty player
// name makes a stub, regardless of team or position.
func IsStub(e *model.PlayerEntry) bool {
	return e == nil || strings.TrimSpace(e.Player.Name) == ""
}

// CleanRecord extracts the bare "W-L-T" token from a messy record string
// ("3-1-0, 2nd in East" and similar). The second return reports whether
// anything was cleaned away.
func CleanRecord(raw string) (string, bool) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", false
	}
	part := strings.TrimSpace(strings.SplitN(t, ",", 2)[0])
	fields := strings.Fields(part)
	cleaned := ""
	if len(fields) > 0 {
		cleaned = fields[0]
	}
	return cleaned, cleaned != t
}

// ParseRecord splits a "W-L-T" string into its three counts, tolerating a
// missing ties segment. Unparseable input yields zeros.
func ParseRecord(record string) (wins, losses, ties int) {
	parts := strings.Split(record, "-")
	nums := make([]int, 3)
	for i := 0; i < 3 && i < len(parts); i++ {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%d", &n); err != nil {
			return 0, 0, 0
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2]
}

// rawEntry is a decoded roster row before slot assignment. hasSlot
// distinguishes "no slot in the input" from an explicit empty slot.
type rawEntry struct {
	slot    string
	hasSlot bool
	player  model.Player
}

// flatPlayer is the legacy scraper row shape without the slot wrapper.
type flatPlayer struct {
	Name      string       `json:"name"`
	Team      string       `json:"team"`
	Position  string       `json:"position"`
	Opponent  string       `json:"opponent"`
	Projected model.Points `json:"projected_points"`
	Actual    model.Points `json:"actual_points"`
}

func decodeEntry(raw json.RawMessage, ref string, warnings *[]string) (rawEntry, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("%s: skipped non-object roster entry", ref))
		return rawEntry{}, false
	}

	if wrapped, ok := probe["player"]; ok {
		var e rawEntry
		if slotRaw, ok := probe["slot"]; ok {
			var slot string
			if err := json.Unmarshal(slotRaw, &slot); err == nil {
				slot = strings.TrimSpace(slot)
				if slot != "" {
					e.slot = slot
					e.hasSlot = true
				}
			}
		}
		if err := json.Unmarshal(wrapped, &e.player); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("%s: skipped roster entry with malformed player object", ref))
			return rawEntry{}, false
		}
		return e, true
	}

	// Flat scraper row without the slot wrapper.
	var fp flatPlayer
	if err := json.Unmarshal(raw, &fp); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("%s: skipped malformed roster entry", ref))
		return rawEntry{}, false
	}
	if strings.TrimSpace(fp.Position) == "" && strings.TrimSpace(fp.Name) != "" {
		*warnings = append(*warnings, fmt.Sprintf("%s: missing position for player %q", ref, fp.Name))
	}
	return rawEntry{player: model.Player{
		Name:     fp.Name,
		Team:     fp.Team,
		Position: fp.Position,
		Opponent: fp.Opponent,
		Proj:     fp.Projected,
		Fpts:     fp.Actual,
	}}, true
}

func decodeEntryList(raw json.RawMessage, ref string, warnings *[]string) []rawEntry {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("%s: roster list is not an array, ignored", ref))
		return nil
	}
	out := make([]rawEntry, 0, len(items))
	for _, item := range items {
		if e, ok := decodeEntry(item, ref, warnings); ok {
			out = append(out, e)
		}
	}
	return out
}

// junkFields are stripped from incoming sides. A warning is emitted only
// when the stripped value was non-empty/non-zero.
var junkFields = []string{"manager", "score", "division", "rank"}

// Side canonicalizes one team's half of a raw game document. side labels
// the half ("team_a"/"team_b") and ref gives ingest context for warnings.
// The returned warnings are advisory; a non-nil error means the input
// shape was unusable (ValidationError).
func Side(raw json.RawMessage, side, ref string) (*model.Side, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, model.Validationf("[%s %s] side is not a JSON object: %v", ref, side, err)
	}

	var warnings []string
	ctx := fmt.Sprintf("[%s %s]", ref, side)

	// Legacy wrapper: roster lists nested under "box_score".
	if boxRaw, ok := fields["box_score"]; ok {
		var box map[string]json.RawMessage
		if err := json.Unmarshal(boxRaw, &box); err == nil {
			for _, key := range []string{"starters", "bench", "ir"} {
				if v, ok := box[key]; ok {
					fields[key] = v
				}
			}
		}
		delete(fields, "box_score")
	}

	out := &model.Side{
		Starters: []*model.PlayerEntry{},
		Bench:    []*model.PlayerEntry{},
		IR:       []*model.PlayerEntry{},
	}

	if nameRaw, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return nil, nil, model.Validationf("%s 'name' is not a string", ctx)
		}
		out.Name = strings.TrimSpace(name)
	}

	if recRaw, ok := fields["record"]; ok {
		var rec string
		_ = json.Unmarshal(recRaw, &rec)
		cleaned, changed := CleanRecord(rec)
		if changed {
			warnings = append(warnings, fmt.Sprintf("%s cleaned record %q to %q", ctx, rec, cleaned))
		}
		out.Record = cleaned
	}

	for _, junk := range junkFields {
		v, ok := fields[junk]
		if !ok {
			continue
		}
		var val any
		_ = json.Unmarshal(v, &val)
		if val != nil && val != "" && val != float64(0) {
			warnings = append(warnings, fmt.Sprintf("%s stripped %q (value=%v) on ingest", ctx, junk, val))
		}
	}

	starters := decodeEntryList(fields["starters"], ctx, &warnings)
	bench := decodeEntryList(fields["bench"], ctx, &warnings)
	ir := decodeEntryList(fields["ir"], ctx, &warnings)

	// Auto-assign the default slot order when any starter arrived unlabeled.
	missing := false
	for _, e := range starters {
		if !e.hasSlot {
			missing = true
			break
		}
	}
	if missing && len(starters) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s starter slots missing, auto-assigned default slot order", ctx))
		for i := range starters {
			if i < len(DefaultStarterSlots) {
				starters[i].slot = DefaultStarterSlots[i]
			} else {
				starters[i].slot = "FLEX"
			}
			starters[i].hasSlot = true
		}
	}

	toEntries := func(raws []rawEntry) []*model.PlayerEntry {
		entries := make([]*model.PlayerEntry, 0, len(raws))
		for _, e := range raws {
			slot := e.slot
			if slot == "" {
				slot = "BENCH"
			}
			entries = append(entries, &model.PlayerEntry{Slot: slot, Player: Player(e.player)})
		}
		return entries
	}

	out.Starters = toEntries(starters)

	dropStubs := func(entries []*model.PlayerEntry, label string) []*model.PlayerEntry {
		kept := entries[:0]
		dropped := 0
		for _, e := range entries {
			if IsStub(e) {
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		if dropped > 0 {
			warnings = append(warnings, fmt.Sprintf("%s dropped %d %s stub(s)", ctx, dropped, label))
		}
		return kept
	}
	out.Bench = dropStubs(toEntries(bench), "BENCH")
	out.IR = dropStubs(toEntries(ir), "IR")

	if totalsRaw, ok := fields["totals"]; ok {
		if err := json.Unmarshal(totalsRaw, &out.Totals); err != nil {
			return nil, nil, model.Validationf("%s 'totals' is not an object", ctx)
		}
	}
	out.Totals.Proj = out.Totals.Proj.Round2()
	out.Totals.Fpts = out.Totals.Fpts.Round2()
	out.Totals.BenchProj = out.Totals.BenchProj.Round2()
	out.Totals.BenchFpts = out.Totals.BenchFpts.Round2()

	return out, warnings, nil
}
