// Package alias resolves team references. Raw input names teams by their
// current display name, a historical alias, or an abbreviation; all of
// them fold to one canonical team_id within a season.
package alias

import (
	"log/slog"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/albapepper/league-ledger/internal/model"
)

// Map folds normalized alias strings to team IDs for one season.
type Map map[string]string

// Key normalizes an alias for lookup: trimmed and case-folded.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BuildMap folds every team's name, aliases, and abbreviation into one
// lookup map. Conflicts are resolved first-team-wins; the Exists check on
// the write path keeps them from being introduced in the first place.
func BuildMap(season *model.Season) Map {
	m := Map{}
	for _, team := range season.Teams {
		if team.TeamID == "" {
			continue
		}
		add := func(s string) {
			k := Key(s)
			if k == "" {
				return
			}
			if _, taken := m[k]; !taken {
				m[k] = team.TeamID
			}
		}
		add(team.Name)
		for _, a := range team.Aliases {
			add(a)
		}
		add(team.Abbrev)
	}
	return m
}

// Resolve returns the team ID for a raw name reference.
func Resolve(m Map, name string) (string, bool) {
	id, ok := m[Key(name)]
	return id, ok
}

// Suggest returns the closest known alias for an unresolvable name, for
// use in error messages. Returns "" when nothing is plausibly close.
func Suggest(m Map, name string) string {
	target := Key(name)
	best := ""
	bestDist := -1
	for known := range m {
		d := fuzzy.LevenshteinDistance(target, known)
		if bestDist == -1 || d < bestDist {
			best, bestDist = known, d
		}
	}
	// A distance beyond half the name length is noise, not a near-miss.
	if best == "" || bestDist > len(target)/2+1 {
		return ""
	}
	return best
}

// Exists reports whether an alias string is already held by a team other
// than excludeTeamID within the season.
func Exists(season *model.Season, candidate, excludeTeamID string) bool {
	k := Key(candidate)
	for _, team := range season.Teams {
		if excludeTeamID != "" && team.TeamID == excludeTeamID {
			continue
		}
		if Key(team.Name) == k || Key(team.Abbrev) == k {
			return true
		}
		for _, a := range team.Aliases {
			if Key(a) == k {
				return true
			}
		}
	}
	return false
}

// FindTeam locates a team by current name, alias, or abbreviation.
func FindTeam(season *model.Season, name, abbrev string) *model.Team {
	nk := Key(name)
	ak := Key(abbrev)
	for _, team := range season.Teams {
		if Key(team.Name) == nk {
			return team
		}
		if ak != "" && Key(team.Abbrev) == ak {
			return team
		}
		for _, a := range team.Aliases {
			if Key(a) == nk {
				return team
			}
		}
	}
	return nil
}

// Rename carries the fields of a team_update transaction that affect
// alias resolution.
type Rename struct {
	NewName   string
	OldName   string
	OldAbbrev string
}

// ApplyRename migrates a renamed team: the display name moves to NewName
// and the old name/abbreviation join the same team's alias list, so both
// spellings keep resolving to the one team ID. Idempotent; aliases held by
// another team are refused with a warning rather than made ambiguous.
//
// Callers must rebuild their alias map afterward so later items in the
// same ingest batch still resolve the old name.
func ApplyRename(season *model.Season, r Rename, logger *slog.Logger) {
	if r.NewName == "" {
		return
	}
	team := FindTeam(season, r.NewName, "")
	if team == nil && r.OldName != "" {
		// the ledger may still carry the pre-rename display name
		team = FindTeam(season, r.OldName, r.OldAbbrev)
	}
	if team == nil {
		logger.Warn("team_update could not find team", "new_name", r.NewName)
		return
	}
	if team.Name != r.NewName {
		team.Name = r.NewName
	}

	has := func(val string) bool {
		k := Key(val)
		for _, a := range team.Aliases {
			if Key(a) == k {
				return true
			}
		}
		return false
	}
	adopt := func(val string) {
		if val == "" || has(val) {
			return
		}
		if Exists(season, val, team.TeamID) {
			logger.Warn("alias already belongs to another team, not adopting",
				"alias", val, "team_id", team.TeamID)
			return
		}
		team.Aliases = append(team.Aliases, val)
	}
	adopt(r.OldName)
	adopt(r.OldAbbrev)
}
