package domain

import "github.com/google/uuid"

// CommandResult holds the outcome of a ledger command.
type CommandResult struct {
	Player  *Player
	BuyIn   *BuyIn
	CashOut *CashOut
	Noop    bool // true if the command found nothing to change
}

// SeatPlayerParams holds the input for ExecuteSeatPlayer.
type SeatPlayerParams struct {
	TableID      uuid.UUID
	Name         string
	Nickname     *string
	InitialChips int64
}

// PlayerRef addresses a player through the table it sits at.
type PlayerRef struct {
	TableID  uuid.UUID
	PlayerID uuid.UUID
}

// AmountParams holds the input for buy-in, cash-out and chip correction commands.
type AmountParams struct {
	PlayerRef
	Amount int64
}
