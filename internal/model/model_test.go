package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoints_LenientDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Points
	}{
		{"plain number", `12.34`, 12.34},
		{"integer", `7`, 7},
		{"numeric string", `"12.34"`, 12.34},
		{"padded numeric string", `" 8.5 "`, 8.5},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
		{"garbage string", `"--"`, 0},
		{"bool becomes zero", `true`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Points
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.InDelta(t, float64(tt.want), float64(p), 1e-9)
		})
	}
}

func TestPoints_Round2(t *testing.T) {
	assert.Equal(t, Points(12.35), Points(12.345).Round2())
	assert.Equal(t, Points(12.34), Points(12.344).Round2())
	assert.Equal(t, Points(0), Points(0.004).Round2())
	assert.Equal(t, Points(-1.5), Points(-1.499).Round2())
}

func TestTransactionValidate_Waiver(t *testing.T) {
	tx := &Transaction{
		Date: "09-10", Time: "9:41 am", Type: TxWaiver,
		TeamName: "Sharks",
		Added:    &TxPlayer{Player: "Jake Browning"},
	}
	require.NoError(t, tx.Validate())

	// No team reference at all.
	tx2 := &Transaction{Date: "09-10", Time: "9:41 am", Type: TxWaiver, Added: &TxPlayer{Player: "X"}}
	assert.Error(t, tx2.Validate())

	// Neither added nor dropped.
	tx3 := &Transaction{Date: "09-10", Time: "9:41 am", Type: TxWaiver, TeamName: "Sharks"}
	assert.Error(t, tx3.Validate())
}

func TestTransactionValidate_Trade(t *testing.T) {
	tx := &Transaction{
		Date: "10-01", Time: "1:00 pm", Type: TxTrade,
		TeamASide: &TradeSide{Name: "Sharks", PlayersOut: []TxPlayer{{Player: "A"}}},
		TeamBSide: &TradeSide{Name: "Bears", PlayersOut: []TxPlayer{{Player: "B"}}},
	}
	require.NoError(t, tx.Validate())

	// One side missing.
	tx2 := &Transaction{Date: "10-01", Time: "1:00 pm", Type: TxTrade, TeamASide: &TradeSide{Name: "Sharks"}}
	assert.Error(t, tx2.Validate())

	// No outgoing assets on either side.
	tx3 := &Transaction{
		Date: "10-01", Time: "1:00 pm", Type: TxTrade,
		TeamASide: &TradeSide{Name: "Sharks"},
		TeamBSide: &TradeSide{Name: "Bears"},
	}
	assert.Error(t, tx3.Validate())
}

func TestTransactionValidate_TeamUpdate(t *testing.T) {
	tx := &Transaction{Date: "11-02", Time: "8:00 am", Type: TxTeamUpdate, NewName: "River Hawks"}
	require.NoError(t, tx.Validate())

	tx2 := &Transaction{Date: "11-02", Time: "8:00 am", Type: TxTeamUpdate, OldName: "Hawks"}
	assert.Error(t, tx2.Validate())
}

func TestTransactionValidate_TypeTag(t *testing.T) {
	tx := &Transaction{Date: "09-10", Time: "9:41 am"}
	assert.Error(t, tx.Validate(), "missing type must be rejected")

	tx.Type = "retirement"
	assert.Error(t, tx.Validate(), "unknown type must be rejected")

	tx.Type = TxFreeAgent
	tx.TeamName = "Sharks"
	tx.Dropped = &TxPlayer{Player: "X"}
	assert.NoError(t, tx.Validate())

	tx.Date = ""
	assert.Error(t, tx.Validate(), "missing date must be rejected")
}
