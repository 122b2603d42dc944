package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// Identifier grammar:
//
//	season       L001S2025
//	game         L001S2025W3G2     (G suffix is 1-based position in the week)
//	transaction  L001S2025T00017   (5-digit, dense across the season)
//
// Game and transaction suffixes are regenerated on every insert or removal
// so they always reflect current positional/chronological order; a given
// suffix is therefore not stable across unrelated removals.
var idPattern = regexp.MustCompile(`^(L\d{3})S(\d{4})(?:W(\d+)G(\d+)|T(\d{5}))?$`)

// IDKind discriminates what a parsed identifier refers to.
type IDKind int

const (
	KindSeason IDKind = iota
	KindGame
	KindTransaction
)

// ParsedID is the structured decomposition of a ledger identifier.
type ParsedID struct {
	Kind   IDKind
	League string
	Year   int
	Week   int // game IDs only
	Seq    int // game or transaction sequence number
}

// SeasonID returns the season prefix of the parsed identifier.
func (p ParsedID) SeasonID() string { return SeasonID(p.League, p.Year) }

// ParseID decomposes a season, game, or transaction identifier. Malformed
// identifiers yield a *ValidationError.
func ParseID(id string) (ParsedID, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return ParsedID{}, Validationf("invalid identifier format: %q (expected L001S2025, L001S2025W3G2, or L001S2025T00001 style)", id)
	}
	year, _ := strconv.Atoi(m[2])
	p := ParsedID{Kind: KindSeason, League: m[1], Year: year}
	switch {
	case m[4] != "":
		p.Kind = KindGame
		p.Week, _ = strconv.Atoi(m[3])
		p.Seq, _ = strconv.Atoi(m[4])
	case m[5] != "":
		p.Kind = KindTransaction
		p.Seq, _ = strconv.Atoi(m[5])
	}
	return p, nil
}

// SeasonID formats a season identifier.
func SeasonID(league string, year int) string {
	return fmt.Sprintf("%sS%d", league, year)
}

// GameID formats a game identifier for position n within a week.
func GameID(league string, year, week, n int) string {
	return fmt.Sprintf("%sS%dW%dG%d", league, year, week, n)
}

// TransactionID formats a dense, zero-padded transaction identifier.
func TransactionID(league string, year, n int) string {
	return fmt.Sprintf("%sS%dT%05d", league, year, n)
}
