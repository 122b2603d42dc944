// Package verify recomputes aggregate totals from leaf player entries and
// checks them against stored totals, and flags structurally broken rows.
// The same checks gate every game ingest (fatal) and drive the standalone
// audit over the whole ledger (collected and reported).
package verify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/albapepper/league-ledger/internal/model"
)

// Tolerance is the absolute reconciliation slack for totals checks.
type Tolerance float64

const (
	// Strict gates new ingests.
	Strict Tolerance = 0.05
	// Legacy absorbs the rounding noise in historical data and is the
	// default for the standalone audit.
	Legacy Tolerance = 0.2
)

// IssueKind classifies a verification finding.
type IssueKind string

const (
	MissingTeamName   IssueKind = "missing_team_name"
	BrokenStarterRow  IssueKind = "broken_starter_row"
	MissingProjection IssueKind = "missing_projection"
	TotalsMismatch    IssueKind = "totals_mismatch"
)

// Issue is one verification finding, already formatted for one-line
// reporting.
type Issue struct {
	Kind IssueKind
	Msg  string
}

func (i Issue) String() string { return i.Msg }

// Messages extracts the formatted lines from a list of issues.
func Messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Msg
	}
	return out
}

// Game checks both sides of a game and returns every issue found. It
// never fails; callers decide whether a non-empty result is fatal.
func Game(g *model.Game, gameID string, tol Tolerance) []Issue {
	var issues []Issue
	issues = append(issues, side(g.TeamA, gameID, "team_a", tol)...)
	issues = append(issues, side(g.TeamB, gameID, "team_b", tol)...)
	return issues
}

func side(s *model.Side, gameID, sideKey string, tol Tolerance) []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{Kind: kind, Msg: fmt.Sprintf("%s %s: ", gameID, sideKey) + fmt.Sprintf(format, args...)})
	}

	if s == nil {
		add(MissingTeamName, "missing side")
		return issues
	}
	if strings.TrimSpace(s.Name) == "" {
		add(MissingTeamName, "missing team name")
	}

	for i, entry := range s.Starters {
		p := entry.Player
		name := strings.TrimSpace(p.Name)
		if name == "" || strings.TrimSpace(p.Team) == "" || strings.TrimSpace(p.Position) == "" {
			add(BrokenStarterRow, "broken starter row #%d (name/team/position missing)", i+1)
		}
		// ESPN sometimes publishes points without a projection.
		if p.Proj.Round2() == 0 && p.Fpts.Round2() > 0 {
			add(MissingProjection, "missing projection for %q (proj=0.0, fpts=%.2f)", name, float64(p.Fpts.Round2()))
		}
	}

	// Sum unrounded, round once, then compare against stored totals.
	var sProj, sFpts, bProj, bFpts float64
	for _, e := range s.Starters {
		sProj += float64(e.Player.Proj)
		sFpts += float64(e.Player.Fpts)
	}
	for _, e := range s.Bench {
		bProj += float64(e.Player.Proj)
		bFpts += float64(e.Player.Fpts)
	}

	checks := []struct {
		label  string
		stored model.Points
		sum    float64
	}{
		{"starters projected", s.Totals.Proj, sProj},
		{"starters fpts", s.Totals.Fpts, sFpts},
		{"bench projected", s.Totals.BenchProj, bProj},
		{"bench fpts", s.Totals.BenchFpts, bFpts},
	}
	for _, c := range checks {
		rounded := model.Points(c.sum).Round2()
		if math.Abs(float64(c.stored)-float64(rounded)) > float64(tol) {
			add(TotalsMismatch, "%s total mismatch (totals=%v, sum=%v)", c.label, float64(c.stored), float64(rounded))
		}
	}
	return issues
}

// Ledger audits every game in the document, collecting all issues across
// all leagues, seasons, and weeks. Non-fatal by contract.
func Ledger(doc *model.Document, tol Tolerance) []Issue {
	var issues []Issue
	for _, leagueID := range sortedKeys(doc.Leagues) {
		league := doc.Leagues[leagueID]
		for _, seasonID := range sortedKeys(league.Seasons) {
			season := league.Seasons[seasonID]
			for _, weekKey := range sortedWeekKeys(season.Weeks) {
				for _, g := range season.Weeks[weekKey].Games {
					gid := g.GameID
					if gid == "" {
						gid = fmt.Sprintf("%sW%sG?", seasonID, weekKey)
					}
					issues = append(issues, Game(g, gid, tol)...)
				}
			}
		}
	}
	return issues
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
