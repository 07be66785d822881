package domain

import "fmt"

// TableBalance compares the money brought to a table with the money accounted for.
type TableBalance struct {
	TotalBuyIns           int64 `json:"totalBuyIns"`
	TotalCashOutsAndChips int64 `json:"totalCashOutsAndChips"`
	Difference            int64 `json:"difference"`
	AllPlayersInactive    bool  `json:"allPlayersInactive"`
	ActivePlayers         int   `json:"activePlayers"`
	IsBalanced            bool  `json:"isBalanced"`
}

// ComputeBalance counts chips for active players and cash-outs for inactive ones.
func ComputeBalance(t *Table) TableBalance {
	var b TableBalance
	for i := range t.Players {
		p := &t.Players[i]
		b.TotalBuyIns += p.TotalBuyIn
		if p.Active {
			b.ActivePlayers++
			b.TotalCashOutsAndChips += p.Chips
		} else {
			b.TotalCashOutsAndChips += p.CashOutTotal()
		}
	}
	b.Difference = b.TotalBuyIns - b.TotalCashOutsAndChips
	b.AllPlayersInactive = b.ActivePlayers == 0
	b.IsBalanced = b.Difference == 0
	return b
}

// CanDeactivate returns ErrTableNotSettled unless every player has left and the books balance.
func (b TableBalance) CanDeactivate() error {
	if !b.AllPlayersInactive {
		return ErrTableNotSettled(fmt.Sprintf("table cannot be closed: %d player(s) still active", b.ActivePlayers))
	}
	if !b.IsBalanced {
		return ErrTableNotSettled(fmt.Sprintf(
			"table cannot be closed: buy-ins %d do not match cash-outs %d (difference %d)",
			b.TotalBuyIns, b.TotalCashOutsAndChips, b.Difference))
	}
	return nil
}
