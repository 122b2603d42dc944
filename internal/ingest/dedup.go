package ingest

import (
	"sort"
	"strings"

	"github.com/albapepper/league-ledger/internal/model"
)

// isDuplicateTx reports whether a candidate matches an existing
// transaction. Team-identifier equality is preferred over name equality
// whenever either side carries a resolved ID; team_update entries also
// compare all four rename fields; trades compare sides symmetrically.
func isDuplicateTx(existing, candidate *model.Transaction) bool {
	if existing.Date != candidate.Date ||
		existing.Time != candidate.Time ||
		existing.Type != candidate.Type ||
		existing.Method != candidate.Method {
		return false
	}

	if existing.TeamID != "" || candidate.TeamID != "" {
		if existing.TeamID != candidate.TeamID {
			return false
		}
	} else if existing.TeamName != candidate.TeamName {
		return false
	}

	if !txPlayerEqual(existing.Added, candidate.Added) {
		return false
	}
	if !txPlayerEqual(existing.Dropped, candidate.Dropped) {
		return false
	}

	if candidate.Type == model.TxTeamUpdate {
		if existing.OldName != candidate.OldName ||
			existing.NewName != candidate.NewName ||
			existing.OldAbbrev != candidate.OldAbbrev ||
			existing.NewAbbrev != candidate.NewAbbrev {
			return false
		}
	}

	if candidate.Type == model.TxTrade {
		return tradeEqual(existing, candidate)
	}
	return true
}

func txPlayerEqual(a, b *model.TxPlayer) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Player != b.Player || a.Team != b.Team || a.Position != b.Position {
		return false
	}
	ac, bc := 0, 0
	if a.Cost != nil {
		ac = *a.Cost
	}
	if b.Cost != nil {
		bc = *b.Cost
	}
	return ac == bc
}

// tradeEqual compares the two trade sides as an unordered pair: the same
// trade submitted with its sides swapped still matches.
func tradeEqual(existing, candidate *model.Transaction) bool {
	ea, eb := existing.TeamASide, existing.TeamBSide
	ca, cb := candidate.TeamASide, candidate.TeamBSide
	if ea == nil || eb == nil || ca == nil || cb == nil {
		return ea == ca && eb == cb
	}
	return (tradeSideEqual(ea, ca) && tradeSideEqual(eb, cb)) ||
		(tradeSideEqual(ea, cb) && tradeSideEqual(eb, ca))
}

func tradeSideEqual(a, b *model.TradeSide) bool {
	return a.Name == b.Name &&
		playerSetEqual(a.PlayersIn, b.PlayersIn) &&
		playerSetEqual(a.PlayersOut, b.PlayersOut) &&
		stringSetEqual(a.PicksIn, b.PicksIn) &&
		stringSetEqual(a.PicksOut, b.PicksOut)
}

func playerSetEqual(a, b []model.TxPlayer) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(p model.TxPlayer) string {
		return strings.ToLower(p.Player) + "|" + strings.ToUpper(p.Team) + "|" + strings.ToUpper(p.Position)
	}
	ka := make([]string, len(a))
	kb := make([]string, len(b))
	for i := range a {
		ka[i] = key(a[i])
		kb[i] = key(b[i])
	}
	sort.Strings(ka)
	sort.Strings(kb)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
