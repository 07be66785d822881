package domain

import (
	"time"

	"github.com/google/uuid"
)

// Table is a poker_tables row with its seated players.
type Table struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	SmallBlind int64      `json:"smallBlind"`
	BigBlind   int64      `json:"bigBlind"`
	Location   *string    `json:"location,omitempty"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	CreatorID  *uuid.UUID `json:"creatorId"`
	Players    []Player   `json:"players"`
}

// Player is a seat at one table, not a global identity.
type Player struct {
	ID         uuid.UUID `json:"id"`
	TableID    uuid.UUID `json:"tableId"`
	Name       string    `json:"name"`
	Nickname   *string   `json:"nickname,omitempty"`
	Chips      int64     `json:"chips"`
	TotalBuyIn int64     `json:"totalBuyIn"`
	Active     bool      `json:"active"`
	ShowMe     bool      `json:"showMe"`
	SeatedAt   time.Time `json:"-"`
	BuyIns     []BuyIn   `json:"buyIns"`
	CashOuts   []CashOut `json:"cashOuts"`
}

// BuyIn is an append-only deposit of chips.
type BuyIn struct {
	ID        uuid.UUID `json:"id"`
	PlayerID  uuid.UUID `json:"playerId"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// CashOut is the settled amount of a player who left the game.
// At most one exists per player.
type CashOut struct {
	ID        uuid.UUID `json:"id"`
	PlayerID  uuid.UUID `json:"playerId"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// CashOutTotal sums the player's cash-out rows.
func (p *Player) CashOutTotal() int64 {
	var total int64
	for _, c := range p.CashOuts {
		total += c.Amount
	}
	return total
}

// EnsureSlices replaces nil history slices with empty ones so they encode as [].
func (t *Table) EnsureSlices() {
	if t.Players == nil {
		t.Players = []Player{}
	}
	for i := range t.Players {
		if t.Players[i].BuyIns == nil {
			t.Players[i].BuyIns = []BuyIn{}
		}
		if t.Players[i].CashOuts == nil {
			t.Players[i].CashOuts = []CashOut{}
		}
	}
}
