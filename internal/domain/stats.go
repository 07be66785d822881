package domain

import (
	"sort"
	"strings"
	"time"
)

// PlayerStats aggregates one person's results across every table they sat at.
// Seats are matched by case-insensitive name.
type PlayerStats struct {
	Name         string  `json:"name"`
	Nickname     *string `json:"nickname,omitempty"`
	TotalBuyIn   int64   `json:"totalBuyIn"`
	TotalCashOut int64   `json:"totalCashOut"`
	NetResult    int64   `json:"netResult"`
	TablesPlayed int     `json:"tablesPlayed"`
	AvgBuyIn     float64 `json:"avgBuyIn"`
	AvgNetResult float64 `json:"avgNetResult"`
	LargestWin   int64   `json:"largestWin"`
	LargestLoss  int64   `json:"largestLoss"`
	GamesWon     int     `json:"gamesWon"`
	GamesLost    int     `json:"gamesLost"`

	latestSeen time.Time
}

// SingleGameStats records the best and worst single-table results.
type SingleGameStats struct {
	MaxWin        int64  `json:"maxWin"`
	MaxWinPlayer  string `json:"maxWinPlayer"`
	MinLoss       int64  `json:"minLoss"`
	MinLossPlayer string `json:"minLossPlayer"`
}

// Statistics is the leaderboard computed from all tables.
type Statistics struct {
	Players    []PlayerStats   `json:"players"`
	SingleGame SingleGameStats `json:"singleGame"`
	TotalBuyIn int64           `json:"totalBuyIn"`
}

// ComputeStatistics walks tables oldest first. A seat's result is its cash-outs plus the chips
// of a still-active seat, minus its total buy-in. Players with fewer than minGames tables are
// left out of Players but still count towards SingleGame and TotalBuyIn.
func ComputeStatistics(tables []Table, minGames int) Statistics {
	ordered := make([]*Table, len(tables))
	for i := range tables {
		ordered[i] = &tables[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	byName := make(map[string]*PlayerStats)
	var keys []string
	single := SingleGameStats{MaxWinPlayer: "-", MinLossPlayer: "-"}
	var totalBuyIn int64

	for _, t := range ordered {
		for i := range t.Players {
			p := &t.Players[i]
			key := strings.ToLower(p.Name)
			st, ok := byName[key]
			if !ok {
				st = &PlayerStats{Name: p.Name, Nickname: p.Nickname, latestSeen: t.CreatedAt}
				byName[key] = st
				keys = append(keys, key)
			} else if !t.CreatedAt.Before(st.latestSeen) {
				st.Nickname = p.Nickname
				st.latestSeen = t.CreatedAt
			}

			value := p.CashOutTotal()
			if p.Active {
				value += p.Chips
			}
			net := value - p.TotalBuyIn

			st.TotalBuyIn += p.TotalBuyIn
			st.TotalCashOut += value
			st.TablesPlayed++
			totalBuyIn += p.TotalBuyIn

			if net > st.LargestWin {
				st.LargestWin = net
			}
			if net < st.LargestLoss {
				st.LargestLoss = net
			}
			if net > single.MaxWin {
				single.MaxWin = net
				single.MaxWinPlayer = p.Name
			}
			if net < single.MinLoss {
				single.MinLoss = net
				single.MinLossPlayer = p.Name
			}
			switch {
			case net > 0:
				st.GamesWon++
			case net < 0:
				st.GamesLost++
			}
		}
	}

	players := make([]PlayerStats, 0, len(keys))
	for _, key := range keys {
		st := byName[key]
		if st.TablesPlayed < minGames {
			continue
		}
		st.NetResult = st.TotalCashOut - st.TotalBuyIn
		st.AvgBuyIn = float64(st.TotalBuyIn) / float64(st.TablesPlayed)
		st.AvgNetResult = float64(st.NetResult) / float64(st.TablesPlayed)
		players = append(players, *st)
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].NetResult != players[j].NetResult {
			return players[i].NetResult > players[j].NetResult
		}
		return strings.ToLower(players[i].Name) < strings.ToLower(players[j].Name)
	})

	return Statistics{Players: players, SingleGame: single, TotalBuyIn: totalBuyIn}
}
