// Package ingest implements the batch mutation operations on the ledger:
// adding and removing games and transactions, and backfilling team IDs.
// Every operation follows load -> validate -> mutate -> save; any failure
// before the mutate step completes leaves the document untouched.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/albapepper/league-ledger/internal/alias"
	"github.com/albapepper/league-ledger/internal/model"
	"github.com/albapepper/league-ledger/internal/normalize"
	"github.com/albapepper/league-ledger/internal/store"
	"github.com/albapepper/league-ledger/internal/verify"
)

// GameSummary reports a successful game ingest.
type GameSummary struct {
	GameID   string
	Week     int
	Year     int
	TeamA    string
	TeamB    string
	Warnings []string
}

// AddGame normalizes a raw game document, resolves both sides to team
// IDs, rejects duplicates, verifies totals at strict tolerance, and
// appends the game to the week bucket. date is the week's YYYY-MM-DD
// date; the year is taken from it.
func AddGame(doc *model.Document, rawGame []byte, leagueID, date string, week int, logger *slog.Logger) (*GameSummary, error) {
	year, err := yearOf(date)
	if err != nil {
		return nil, err
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(rawGame, &shape); err != nil {
		return nil, model.Validationf("new game document must be a JSON object: %v", err)
	}
	rawA, okA := shape["team_a"]
	rawB, okB := shape["team_b"]
	if !okA || !okB {
		return nil, model.Validationf("new game document must contain 'team_a' and 'team_b'")
	}

	wk := store.GetOrCreateWeek(doc, leagueID, year, week, date)
	season := store.GetOrCreateSeason(doc, leagueID, year)
	aliases := alias.BuildMap(season)

	ref := fmt.Sprintf("S%dW%dG?", year, week)
	sideA, warnsA, err := normalize.Side(rawA, "team_a", ref)
	if err != nil {
		return nil, err
	}
	sideB, warnsB, err := normalize.Side(rawB, "team_b", ref)
	if err != nil {
		return nil, err
	}
	warnings := append(warnsA, warnsB...)

	for _, s := range []*model.Side{sideA, sideB} {
		id, ok := alias.Resolve(aliases, s.Name)
		if !ok {
			msg := fmt.Sprintf("unknown team name %q in season %s", s.Name, season.SeasonID)
			if hint := alias.Suggest(aliases, s.Name); hint != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			return nil, model.Referencef(s.Name, "%s", msg)
		}
		s.TeamID = id
	}

	for _, g := range wk.Games {
		if g.TeamA != nil && g.TeamB != nil &&
			g.TeamA.Name == sideA.Name && g.TeamB.Name == sideB.Name {
			return nil, model.Duplicatef("duplicate matchup in week %d: %s vs %s", week, sideA.Name, sideB.Name)
		}
	}

	gameID := nextGameID(wk.Games, leagueID, year, week)
	game := &model.Game{GameID: gameID, TeamA: sideA, TeamB: sideB}

	if issues := verify.Game(game, gameID, verify.Strict); len(issues) > 0 {
		return nil, &model.ConsistencyError{Issues: verify.Messages(issues)}
	}

	for _, w := range warnings {
		logger.Warn(w)
	}
	maybeUpdateTeamRecord(season, sideA, logger)
	maybeUpdateTeamRecord(season, sideB, logger)

	wk.Games = append(wk.Games, game)
	return &GameSummary{
		GameID:   gameID,
		Week:     week,
		Year:     year,
		TeamA:    sideA.Name,
		TeamB:    sideB.Name,
		Warnings: warnings,
	}, nil
}

// nextGameID allocates the next identifier within a week: one past the
// highest existing suffix, so removal gaps are closed only by reindexing.
func nextGameID(games []*model.Game, leagueID string, year, week int) string {
	maxN := 0
	prefix := fmt.Sprintf("%sS%dW%dG", leagueID, year, week)
	for _, g := range games {
		if !strings.HasPrefix(g.GameID, prefix) {
			continue
		}
		if n, err := strconv.Atoi(g.GameID[len(prefix):]); err == nil && n > maxN {
			maxN = n
		}
	}
	return model.GameID(leagueID, year, week, maxN+1)
}

// maybeUpdateTeamRecord adopts the ingested side's W-L-T record onto the
// season team entry when it reflects more games played than the stored one.
func maybeUpdateTeamRecord(season *model.Season, s *model.Side, logger *slog.Logger) {
	if s.TeamID == "" || s.Record == "" {
		return
	}
	nw, nl, nt := normalize.ParseRecord(s.Record)
	for _, team := range season.Teams {
		if team.TeamID != s.TeamID {
			continue
		}
		ow, ol, ot := normalize.ParseRecord(team.Record)
		if nw+nl+nt > ow+ol+ot {
			logger.Info("updated team record", "team", team.Name, "old", team.Record, "new", s.Record)
			team.Record = s.Record
		}
		return
	}
}

// IDChange is one entry of a reindex plan.
type IDChange struct {
	Old string
	New string
}

// RemovePlan describes a pending game removal: the matchup being deleted
// and the identifier changes the removal will force on its week siblings.
// Callers show the plan, collect confirmation, then Apply.
type RemovePlan struct {
	GameID  string
	Week    int
	TeamA   string
	TeamB   string
	Reindex []IDChange

	week     *model.Week
	seasonID string
	index    int
}

// PlanRemoveGame locates a game by identifier and computes the reindex
// plan for the games that follow it in the week. Nothing is mutated.
func PlanRemoveGame(doc *model.Document, gameID string) (*RemovePlan, error) {
	id, err := model.ParseID(gameID)
	if err != nil {
		return nil, err
	}
	if id.Kind != model.KindGame {
		return nil, model.Validationf("%q is not a game identifier", gameID)
	}

	season, err := store.Season(doc, id.League, id.Year)
	if err != nil {
		return nil, err
	}
	wk, err := store.Week(season, id.Week)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, g := range wk.Games {
		if g.GameID == gameID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, model.Referencef(gameID, "no game with id %q found in week %d", gameID, id.Week)
	}

	plan := &RemovePlan{
		GameID:   gameID,
		Week:     id.Week,
		week:     wk,
		seasonID: id.SeasonID(),
		index:    idx,
	}
	if g := wk.Games[idx]; g.TeamA != nil && g.TeamB != nil {
		plan.TeamA = g.TeamA.Name
		plan.TeamB = g.TeamB.Name
	}
	for j := idx + 1; j < len(wk.Games); j++ {
		plan.Reindex = append(plan.Reindex, IDChange{
			Old: wk.Games[j].GameID,
			New: fmt.Sprintf("%sW%dG%d", plan.seasonID, id.Week, j),
		})
	}
	return plan, nil
}

// Apply removes the planned game and renumbers the remaining games in the
// week by stored position, G1..Gk.
func (p *RemovePlan) Apply() {
	p.week.Games = append(p.week.Games[:p.index], p.week.Games[p.index+1:]...)
	for j, g := range p.week.Games {
		g.GameID = fmt.Sprintf("%sW%dG%d", p.seasonID, p.Week, j+1)
	}
}

func yearOf(date string) (int, error) {
	parts := strings.SplitN(date, "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return 0, model.Validationf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return year, nil
}
