// Package model defines the ledger document: leagues, seasons, teams,
// weeks, games, and the season transaction log, plus the typed errors and
// the identifier codec shared by every operation.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Document is the root of the persisted ledger file.
type Document struct {
	Leagues map[string]*League `json:"leagues"`
}

// NewDocument returns an empty, well-formed ledger skeleton.
func NewDocument() *Document {
	return &Document{Leagues: map[string]*League{}}
}

type League struct {
	LeagueID string             `json:"league_id"`
	Name     string             `json:"name,omitempty"`
	Seasons  map[string]*Season `json:"seasons"`
}

// Season owns the team roster, the week buckets, and the transaction log.
// The team list is the sole source of truth for alias resolution within
// the season; aliases never cross seasons.
type Season struct {
	SeasonID     string           `json:"season_id"`
	Year         int              `json:"year"`
	Teams        []*Team          `json:"teams,omitempty"`
	Weeks        map[string]*Week `json:"weeks,omitempty"`
	Transactions []*Transaction   `json:"transactions,omitempty"`
	Draft        *Draft           `json:"draft,omitempty"`
}

// Team is a canonical franchise within one season. Teams only ever gain
// aliases; they never lose identity.
type Team struct {
	TeamID  string   `json:"team_id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Abbrev  string   `json:"abbrev,omitempty"`
	Record  string   `json:"record,omitempty"`
}

// Week is a 1-based ordinal bucket of games, keyed in Season.Weeks by the
// ordinal's decimal string.
type Week struct {
	Date  string  `json:"date,omitempty"`
	Games []*Game `json:"games"`
}

type Game struct {
	GameID string `json:"game_id"`
	TeamA  *Side  `json:"team_a"`
	TeamB  *Side  `json:"team_b"`
}

// Side is one team's half of a game. Name is a display-name snapshot taken
// at ingest time and may drift from the team's current name.
type Side struct {
	TeamID   string         `json:"team_id,omitempty"`
	Name     string         `json:"name"`
	Record   string         `json:"record,omitempty"`
	Starters []*PlayerEntry `json:"starters"`
	Bench    []*PlayerEntry `json:"bench"`
	IR       []*PlayerEntry `json:"ir"`
	Totals   Totals         `json:"totals"`
}

type PlayerEntry struct {
	Slot   string `json:"slot"`
	Player Player `json:"player"`
}

type Player struct {
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"`
	Opponent string `json:"opponent,omitempty"`
	Proj     Points `json:"proj"`
	Fpts     Points `json:"fpts"`
}

// Totals are stored aggregates expected to reconcile with the summed
// player entries within the verification tolerance.
type Totals struct {
	Proj      Points `json:"proj"`
	Fpts      Points `json:"fpts"`
	BenchProj Points `json:"bench_proj"`
	BenchFpts Points `json:"bench_fpts"`
}

// Points is a fantasy point value that decodes leniently: numbers parse as
// usual, numeric strings are converted, and null or garbage becomes 0.
type Points float64

func (p *Points) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*p = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*p = 0
			return nil
		}
		*p = Points(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*p = 0
		return nil
	}
	*p = Points(f)
	return nil
}

// Round2 rounds to 2 decimal places, the ledger-wide numeric precision.
func (p Points) Round2() Points {
	return Points(math.Round(float64(p)*100) / 100)
}

// Transaction types.
const (
	TxWaiver     = "waiver"
	TxFreeAgent  = "free_agent"
	TxTrade      = "trade"
	TxTeamUpdate = "team_update"
)

// Transaction is one entry in the season transaction log. Type is the tag;
// which of the optional payload fields are meaningful depends on it, and
// Validate enforces the per-type requirements at the ingest boundary.
type Transaction struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Type          string `json:"type"`
	Method        string `json:"method,omitempty"`
	TeamName      string `json:"team_name,omitempty"`
	TeamID        string `json:"team_id,omitempty"`

	// waiver / free_agent
	Added          *TxPlayer `json:"added,omitempty"`
	Dropped        *TxPlayer `json:"dropped,omitempty"`
	Bid            *int      `json:"bid,omitempty"`
	PriorityBefore *int      `json:"priority_before,omitempty"`
	PriorityAfter  *int      `json:"priority_after,omitempty"`

	// trade
	Teams     []string   `json:"teams,omitempty"`
	TeamASide *TradeSide `json:"team_a,omitempty"`
	TeamBSide *TradeSide `json:"team_b,omitempty"`

	// team_update
	OldName   string `json:"old_name,omitempty"`
	NewName   string `json:"new_name,omitempty"`
	OldAbbrev string `json:"old_abbrev,omitempty"`
	NewAbbrev string `json:"new_abbrev,omitempty"`

	Note string `json:"note,omitempty"`
}

type TxPlayer struct {
	Player   string `json:"player"`
	Team     string `json:"team,omitempty"`
	Position string `json:"position,omitempty"`
	Cost     *int   `json:"cost,omitempty"`
}

type TradeSide struct {
	Name       string     `json:"name"`
	PlayersIn  []TxPlayer `json:"players_in,omitempty"`
	PlayersOut []TxPlayer `json:"players_out,omitempty"`
	PicksIn    []string   `json:"picks_in,omitempty"`
	PicksOut   []string   `json:"picks_out,omitempty"`
}

// Validate checks the per-type payload requirements. It returns a
// *ValidationError describing the first problem found.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Date) == "" {
		return Validationf("transaction is missing 'date'")
	}
	if strings.TrimSpace(t.Time) == "" {
		return Validationf("transaction is missing 'time'")
	}
	switch t.Type {
	case TxWaiver, TxFreeAgent:
		if strings.TrimSpace(t.TeamName) == "" && strings.TrimSpace(t.TeamID) == "" {
			return Validationf("%s transaction is missing a team reference", t.Type)
		}
		if t.Added == nil && t.Dropped == nil {
			return Validationf("%s transaction must include at least one added or dropped player", t.Type)
		}
	case TxTrade:
		if t.TeamASide == nil || t.TeamBSide == nil {
			return Validationf("trade transaction must include 'team_a' and 'team_b' sides")
		}
		if t.TeamASide.Name == "" || t.TeamBSide.Name == "" {
			return Validationf("trade side is missing 'name'")
		}
		if len(t.TeamASide.PlayersOut) == 0 && len(t.TeamBSide.PlayersOut) == 0 &&
			len(t.TeamASide.PicksOut) == 0 && len(t.TeamBSide.PicksOut) == 0 {
			return Validationf("trade must include at least one outgoing asset")
		}
	case TxTeamUpdate:
		if strings.TrimSpace(t.NewName) == "" {
			return Validationf("team_update transaction is missing 'new_name'")
		}
	case "":
		return Validationf("transaction is missing 'type'")
	default:
		return Validationf("unknown transaction type %q (expected waiver, free_agent, trade, or team_update)", t.Type)
	}
	return nil
}

// Draft is recorded once per season by an external collaborator and only
// read here (the export step flattens it).
type Draft struct {
	Rounds map[string]*DraftRound `json:"rounds,omitempty"`
}

type DraftRound struct {
	Picks []*DraftPick `json:"picks"`
}

type DraftPick struct {
	RoundPick int    `json:"round_pick"`
	Overall   int    `json:"overall"`
	Player    string `json:"player"`
	TeamID    string `json:"team_id,omitempty"`
	Team      string `json:"team,omitempty"`
}
