// Package export flattens a season of the ledger into JSONL record files
// for downstream analytics. It is a read-only consumer of the ledger's
// final shape: totals, team_id cross-references, and dense identifiers
// are expected to already hold.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/albapepper/league-ledger/internal/model"
)

// stripMarks removes diacritics: NFKD decomposition, drop combining
// marks, recompose.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormName folds a player name for cross-source joining: accent-stripped,
// lowercased, non-alphanumerics collapsed to single spaces.
func NormName(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.TrimSpace(nonAlnum.ReplaceAllString(folded, " "))
}

type meta struct {
	LeagueID   string `json:"league_id"`
	LeagueName string `json:"league_name,omitempty"`
	Season     string `json:"season"`
}

type matchupRow struct {
	meta
	Week              int     `json:"week"`
	WeekDate          string  `json:"week_date,omitempty"`
	GameID            string  `json:"game_id"`
	TeamAID           string  `json:"team_a_id,omitempty"`
	TeamANameSnapshot string  `json:"team_a_name_snapshot,omitempty"`
	TeamAScore        float64 `json:"team_a_score"`
	TeamBID           string  `json:"team_b_id,omitempty"`
	TeamBNameSnapshot string  `json:"team_b_name_snapshot,omitempty"`
	TeamBScore        float64 `json:"team_b_score"`
	WinnerTeamID      string  `json:"winner_team_id"`
}

type lineupRow struct {
	meta
	Week             int     `json:"week"`
	GameID           string  `json:"game_id"`
	TeamID           string  `json:"team_id,omitempty"`
	TeamNameSnapshot string  `json:"team_name_snapshot,omitempty"`
	Bucket           string  `json:"bucket"`
	Slot             string  `json:"slot,omitempty"`
	PlayerSnapshot   string  `json:"player_snapshot,omitempty"`
	PlayerNormalized string  `json:"player_normalized,omitempty"`
	NFLTeam          string  `json:"nfl_team,omitempty"`
	Position         string  `json:"position,omitempty"`
	Opponent         string  `json:"opponent,omitempty"`
	Projected        float64 `json:"projected"`
	Points           float64 `json:"points"`
}

type weeklyRow struct {
	meta
	Week             int     `json:"week"`
	PlayerNormalized string  `json:"player_normalized"`
	Points           float64 `json:"points"`
}

type txRow struct {
	meta
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
	Type             string `json:"type,omitempty"`
	Method           string `json:"method,omitempty"`
	TeamID           string `json:"team_id,omitempty"`
	TeamNameSnapshot string `json:"team_name_snapshot,omitempty"`
	TransactionID    string `json:"transaction_id,omitempty"`

	AddedPlayerSnapshot   string `json:"added_player_snapshot,omitempty"`
	AddedPlayerNormalized string `json:"added_player_normalized,omitempty"`
	AddedTeam             string `json:"added_team,omitempty"`
	AddedPosition         string `json:"added_position,omitempty"`
	AddedCost             *int   `json:"added_cost,omitempty"`

	DroppedPlayerSnapshot   string `json:"dropped_player_snapshot,omitempty"`
	DroppedPlayerNormalized string `json:"dropped_player_normalized,omitempty"`
	DroppedTeam             string `json:"dropped_team,omitempty"`
	DroppedPosition         string `json:"dropped_position,omitempty"`

	OldName   string `json:"old_name,omitempty"`
	NewName   string `json:"new_name,omitempty"`
	OldAbbrev string `json:"old_abbrev,omitempty"`
	NewAbbrev string `json:"new_abbrev,omitempty"`
	Note      string `json:"note,omitempty"`
}

type draftRow struct {
	meta
	Round            int    `json:"round"`
	RoundPick        int    `json:"round_pick"`
	Overall          int    `json:"overall"`
	PlayerSnapshot   string `json:"player_snapshot,omitempty"`
	PlayerNormalized string `json:"player_normalized,omitempty"`
	TeamID           string `json:"team_id,omitempty"`
	TeamNameSnapshot string `json:"team_name_snapshot,omitempty"`
}

// Run flattens one league season into five JSONL files under outDir,
// each prefixed "{league}_{season}_".
func Run(doc *model.Document, leagueID, seasonKey string, outDir string, logger *slog.Logger) error {
	league, ok := doc.Leagues[leagueID]
	if !ok {
		return model.Referencef(leagueID, "league %q not found in ledger", leagueID)
	}
	season, ok := league.Seasons[seasonKey]
	if !ok {
		return model.Referencef(seasonKey, "season %q not found in league %s", seasonKey, leagueID)
	}

	m := meta{LeagueID: leagueID, LeagueName: league.Name, Season: seasonKey}

	idByName := map[string]string{}
	for _, t := range season.Teams {
		idByName[NormName(t.Name)] = t.TeamID
	}

	var matchups []matchupRow
	var lineups []lineupRow
	weeklyPoints := map[[2]any]float64{}

	weekKeys := make([]string, 0, len(season.Weeks))
	for k := range season.Weeks {
		weekKeys = append(weekKeys, k)
	}
	sort.Slice(weekKeys, func(i, j int) bool {
		a, _ := strconv.Atoi(weekKeys[i])
		b, _ := strconv.Atoi(weekKeys[j])
		return a < b
	})

	for _, weekKey := range weekKeys {
		wk := season.Weeks[weekKey]
		week, _ := strconv.Atoi(weekKey)
		for _, g := range wk.Games {
			a, b := g.TeamA, g.TeamB
			if a == nil || b == nil {
				continue
			}
			aID := a.TeamID
			if aID == "" {
				aID = idByName[NormName(a.Name)]
			}
			bID := b.TeamID
			if bID == "" {
				bID = idByName[NormName(b.Name)]
			}
			aScore := float64(a.Totals.Fpts)
			bScore := float64(b.Totals.Fpts)
			winner := "TIE"
			if aScore > bScore {
				winner = aID
			} else if bScore > aScore {
				winner = bID
			}
			matchups = append(matchups, matchupRow{
				meta: m, Week: week, WeekDate: wk.Date, GameID: g.GameID,
				TeamAID: aID, TeamANameSnapshot: a.Name, TeamAScore: aScore,
				TeamBID: bID, TeamBNameSnapshot: b.Name, TeamBScore: bScore,
				WinnerTeamID: winner,
			})

			emit := func(side *model.Side, teamID, bucket string, entries []*model.PlayerEntry) {
				for _, e := range entries {
					np := NormName(e.Player.Name)
					lineups = append(lineups, lineupRow{
						meta: m, Week: week, GameID: g.GameID,
						TeamID: teamID, TeamNameSnapshot: side.Name,
						Bucket: bucket, Slot: e.Slot,
						PlayerSnapshot: e.Player.Name, PlayerNormalized: np,
						NFLTeam: e.Player.Team, Position: e.Player.Position,
						Opponent:  e.Player.Opponent,
						Projected: float64(e.Player.Proj), Points: float64(e.Player.Fpts),
					})
					if np != "" {
						weeklyPoints[[2]any{week, np}] += float64(e.Player.Fpts)
					}
				}
			}
			emit(a, aID, "STARTER", a.Starters)
			emit(a, aID, "BENCH", a.Bench)
			emit(a, aID, "IR", a.IR)
			emit(b, bID, "STARTER", b.Starters)
			emit(b, bID, "BENCH", b.Bench)
			emit(b, bID, "IR", b.IR)
		}
	}

	var weekly []weeklyRow
	for key, pts := range weeklyPoints {
		weekly = append(weekly, weeklyRow{
			meta: m, Week: key[0].(int), PlayerNormalized: key[1].(string),
			Points: float64(model.Points(pts).Round2()),
		})
	}
	sort.Slice(weekly, func(i, j int) bool {
		if weekly[i].Week != weekly[j].Week {
			return weekly[i].Week < weekly[j].Week
		}
		return weekly[i].PlayerNormalized < weekly[j].PlayerNormalized
	})

	var txs []txRow
	for _, tx := range season.Transactions {
		row := txRow{
			meta: m, Date: tx.Date, Time: tx.Time, Type: tx.Type, Method: tx.Method,
			TeamID: tx.TeamID, TeamNameSnapshot: tx.TeamName, TransactionID: tx.TransactionID,
			OldName: tx.OldName, NewName: tx.NewName,
			OldAbbrev: tx.OldAbbrev, NewAbbrev: tx.NewAbbrev, Note: tx.Note,
		}
		if tx.Added != nil {
			row.AddedPlayerSnapshot = tx.Added.Player
			row.AddedPlayerNormalized = NormName(tx.Added.Player)
			row.AddedTeam = tx.Added.Team
			row.AddedPosition = tx.Added.Position
			row.AddedCost = tx.Added.Cost
		}
		if tx.Dropped != nil {
			row.DroppedPlayerSnapshot = tx.Dropped.Player
			row.DroppedPlayerNormalized = NormName(tx.Dropped.Player)
			row.DroppedTeam = tx.Dropped.Team
			row.DroppedPosition = tx.Dropped.Position
		}
		txs = append(txs, row)
	}

	var picks []draftRow
	if season.Draft != nil {
		roundKeys := make([]string, 0, len(season.Draft.Rounds))
		for k := range season.Draft.Rounds {
			roundKeys = append(roundKeys, k)
		}
		sort.Slice(roundKeys, func(i, j int) bool {
			a, _ := strconv.Atoi(roundKeys[i])
			b, _ := strconv.Atoi(roundKeys[j])
			return a < b
		})
		for _, rk := range roundKeys {
			round, _ := strconv.Atoi(rk)
			for _, p := range season.Draft.Rounds[rk].Picks {
				picks = append(picks, draftRow{
					meta: m, Round: round, RoundPick: p.RoundPick, Overall: p.Overall,
					PlayerSnapshot: p.Player, PlayerNormalized: NormName(p.Player),
					TeamID: p.TeamID, TeamNameSnapshot: p.Team,
				})
			}
		}
	}

	prefix := fmt.Sprintf("%s_%s_", leagueID, seasonKey)
	if err := writeJSONL(filepath.Join(outDir, prefix+"matchups.jsonl"), matchups, logger); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(outDir, prefix+"lineup_slots.jsonl"), lineups, logger); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(outDir, prefix+"weekly_player_stats.jsonl"), weekly, logger); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(outDir, prefix+"transactions.jsonl"), txs, logger); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(outDir, prefix+"draft_picks.jsonl"), picks, logger)
}

func writeJSONL[T any](path string, rows []T, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row for %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	logger.Info("wrote export file", "rows", len(rows), "path", path)
	return nil
}
