package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/pokerledger/platform/internal/domain"
)

// tablesData lays out one row per table with its money totals.
func tablesData(tables []domain.Table) pterm.TableData {
	data := pterm.TableData{{"ID", "Name", "Blinds", "Location", "Status", "Players", "Buy-ins"}}
	for i := range tables {
		t := &tables[i]
		balance := domain.ComputeBalance(t)
		data = append(data, []string{
			t.ID.String(),
			t.Name,
			fmt.Sprintf("%d/%d", t.SmallBlind, t.BigBlind),
			optional(t.Location),
			status(t.IsActive, "open", "closed"),
			fmt.Sprintf("%d/%d", balance.ActivePlayers, len(t.Players)),
			strconv.FormatInt(balance.TotalBuyIns, 10),
		})
	}
	return data
}

// playersData lays out the seats of one table. Inactive seats show their cash-out.
func playersData(t *domain.Table) pterm.TableData {
	data := pterm.TableData{{"ID", "Name", "Nickname", "Status", "Buy-in", "Chips", "Cash-out", "Net"}}
	for i := range t.Players {
		p := &t.Players[i]
		value := p.CashOutTotal()
		chips := "-"
		if p.Active {
			value += p.Chips
			chips = strconv.FormatInt(p.Chips, 10)
		}
		cashOut := "-"
		if len(p.CashOuts) > 0 {
			cashOut = strconv.FormatInt(p.CashOutTotal(), 10)
		}
		data = append(data, []string{
			p.ID.String(),
			p.Name,
			optional(p.Nickname),
			status(p.Active, "playing", "out"),
			strconv.FormatInt(p.TotalBuyIn, 10),
			chips,
			cashOut,
			signed(value - p.TotalBuyIn),
		})
	}
	return data
}

// statsData ranks players by net result.
func statsData(st *domain.Statistics) pterm.TableData {
	data := pterm.TableData{{"#", "Name", "Tables", "Buy-in", "Cash-out", "Net", "Avg net", "Won/Lost"}}
	for i, p := range st.Players {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			p.Name,
			strconv.Itoa(p.TablesPlayed),
			strconv.FormatInt(p.TotalBuyIn, 10),
			strconv.FormatInt(p.TotalCashOut, 10),
			signed(p.NetResult),
			fmt.Sprintf("%+.1f", p.AvgNetResult),
			fmt.Sprintf("%d/%d", p.GamesWon, p.GamesLost),
		})
	}
	return data
}

func balanceLines(b *domain.TableBalance) []string {
	lines := []string{
		fmt.Sprintf("Total buy-ins:            %d", b.TotalBuyIns),
		fmt.Sprintf("Chips and cash-outs:      %d", b.TotalCashOutsAndChips),
		fmt.Sprintf("Difference:               %s", signed(b.Difference)),
		fmt.Sprintf("Active players:           %d", b.ActivePlayers),
	}
	if b.IsBalanced && b.AllPlayersInactive {
		lines = append(lines, "Ready to close")
	} else {
		lines = append(lines, "Not ready to close")
	}
	return lines
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func status(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func signed(n int64) string {
	if n > 0 {
		return "+" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
