// Package migrate holds the one-off corrective passes: identifier
// regeneration across a whole ledger, team-ID stamping on historical
// games, and the one-time legacy shape migration. These run standalone,
// outside the normal ingest flow.
package migrate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/albapepper/league-ledger/internal/alias"
	"github.com/albapepper/league-ledger/internal/model"
	"github.com/albapepper/league-ledger/internal/store"
)

// IDChange records one identifier rewrite.
type IDChange struct {
	Old string
	New string
}

// GameIDs recomputes every game identifier from its season, week, and
// stored position, returning the mismatches found. With dryRun the
// document is left untouched.
func GameIDs(doc *model.Document, dryRun bool) []IDChange {
	var changes []IDChange
	forEachSeason(doc, func(_ string, seasonID string, season *model.Season) {
		for _, weekKey := range sortedWeekKeys(season.Weeks) {
			for idx, g := range season.Weeks[weekKey].Games {
				expected := fmt.Sprintf("%sW%sG%d", seasonID, weekKey, idx+1)
				if g.GameID != expected {
					changes = append(changes, IDChange{Old: g.GameID, New: expected})
					if !dryRun {
						g.GameID = expected
					}
				}
			}
		}
	})
	return changes
}

// TransactionIDs renumbers every season's transaction log in current
// order, reporting each rewrite.
func TransactionIDs(doc *model.Document) []IDChange {
	var changes []IDChange
	forEachSeason(doc, func(leagueID string, _ string, season *model.Season) {
		for i, tx := range season.Transactions {
			expected := model.TransactionID(leagueID, season.Year, i+1)
			if tx.TransactionID != expected {
				changes = append(changes, IDChange{Old: tx.TransactionID, New: expected})
				tx.TransactionID = expected
			}
		}
	})
	return changes
}

// TeamIDsResult reports a historical team-ID stamping pass.
type TeamIDsResult struct {
	Updated   int
	Unmatched []string
}

// TeamIDs stamps team_id onto game sides that predate cross-referencing,
// resolving the side's name snapshot through the season alias map.
func TeamIDs(doc *model.Document, leagueID string, year int) (*TeamIDsResult, error) {
	season, err := store.Season(doc, leagueID, year)
	if err != nil {
		return nil, err
	}

	aliases := alias.BuildMap(season)
	res := &TeamIDsResult{}
	seen := map[string]bool{}
	for _, weekKey := range sortedWeekKeys(season.Weeks) {
		for _, g := range season.Weeks[weekKey].Games {
			for _, side := range []*model.Side{g.TeamA, g.TeamB} {
				if side == nil || side.TeamID != "" {
					continue
				}
				if id, ok := alias.Resolve(aliases, side.Name); ok {
					side.TeamID = id
					res.Updated++
				} else if !seen[side.Name] {
					seen[side.Name] = true
					res.Unmatched = append(res.Unmatched, side.Name)
				}
			}
		}
	}
	sort.Strings(res.Unmatched)
	return res, nil
}

// Shapes rewrites the legacy document spellings into the canonical model:
// "leagues by ID" -> "leagues", "seasons by ID" -> "seasons",
// "team_aliases" -> "teams", transactions {"items": [...]} -> bare list,
// and the games/weeks double nesting -> "weeks". It operates on raw JSON
// so that documents predating the typed model still load afterward.
func Shapes(raw []byte) ([]byte, []string, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, nil, model.Validationf("ledger is not valid JSON: %v", err)
	}

	var notes []string
	renameKey := func(m map[string]any, from, to string) bool {
		v, ok := m[from]
		if !ok {
			return false
		}
		if _, taken := m[to]; !taken {
			m[to] = v
		}
		delete(m, from)
		return true
	}

	for _, legacy := range []string{"leagues by ID", "leagues BY ID"} {
		if renameKey(root, legacy, "leagues") {
			notes = append(notes, fmt.Sprintf("renamed root %q to \"leagues\"", legacy))
		}
	}

	leagues, _ := root["leagues"].(map[string]any)
	for leagueID, lv := range leagues {
		league, ok := lv.(map[string]any)
		if !ok {
			continue
		}
		for _, legacy := range []string{"seasons by ID", "seasons BY ID"} {
			if renameKey(league, legacy, "seasons") {
				notes = append(notes, fmt.Sprintf("league %s: renamed %q to \"seasons\"", leagueID, legacy))
			}
		}
		seasons, _ := league["seasons"].(map[string]any)
		for seasonID, sv := range seasons {
			season, ok := sv.(map[string]any)
			if !ok {
				continue
			}
			if _, hasTeams := season["teams"]; !hasTeams {
				if renameKey(season, "team_aliases", "teams") {
					notes = append(notes, fmt.Sprintf("season %s: renamed \"team_aliases\" to \"teams\"", seasonID))
				}
			} else if _, dual := season["team_aliases"]; dual {
				delete(season, "team_aliases")
				notes = append(notes, fmt.Sprintf("season %s: dropped duplicate \"team_aliases\"", seasonID))
			}

			if txObj, ok := season["transactions"].(map[string]any); ok {
				if items, ok := txObj["items"].([]any); ok {
					season["transactions"] = items
				} else {
					season["transactions"] = []any{}
				}
				notes = append(notes, fmt.Sprintf("season %s: flattened transactions object to a list", seasonID))
			}

			if games, ok := season["games"].(map[string]any); ok {
				if weeks, ok := games["weeks"]; ok {
					if _, taken := season["weeks"]; !taken {
						season["weeks"] = weeks
					}
					delete(season, "games")
					notes = append(notes, fmt.Sprintf("season %s: lifted games.weeks to \"weeks\"", seasonID))
				}
			}
		}
	}

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("re-encode ledger: %w", err)
	}
	return out, notes, nil
}

func forEachSeason(doc *model.Document, fn func(leagueID, seasonID string, season *model.Season)) {
	for _, leagueID := range sortedKeys(doc.Leagues) {
		league := doc.Leagues[leagueID]
		for _, seasonID := range sortedKeys(league.Seasons) {
			fn(leagueID, seasonID, league.Seasons[seasonID])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedWeekKeys(m map[string]*model.Week) []string {
	keys := sortedKeys(m)
	sort.Slice(keys, func(i, j int) bool {
		var a, b int
		fmt.Sscanf(keys[i], "%d", &a)
		fmt.Sscanf(keys[j], "%d", &b)
		return a < b
	})
	return keys
}
