// Command ledgerctl reads and updates the poker ledger from a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/pokerledger/platform/internal/client"
)

const usage = `usage: ledgerctl [flags] <command> [args]

commands:
  tables                         list tables
  table <tableId>                show one table with its players
  balance <tableId>              show a table's balance
  stats                          show the leaderboard
  names                          list distinct player names
  open <tableId>                 reopen a table
  close <tableId>                close a settled table
  buyin <tableId> <playerId> <amount>
  cashout <tableId> <playerId> <amount>

flags:
`

func main() {
	server := flag.String("server", envOr("LEDGER_SERVER", "http://localhost:3100"), "API base URL")
	user := flag.String("user", os.Getenv("LEDGER_USER"), "username; prompts for the password")
	minGames := flag.Int("min-games", 0, "hide players with fewer tables from stats")
	timeout := flag.Duration("timeout", 15*time.Second, "per-command timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(*server, client.WithToken(os.Getenv("LEDGER_TOKEN")))
	if *user != "" {
		password, err := readPassword(fmt.Sprintf("Password for %s: ", *user))
		if err != nil {
			logger.Error("read password", "error", err)
			os.Exit(1)
		}
		if _, err := c.Login(ctx, *user, password); err != nil {
			pterm.Error.Println(describe(err))
			os.Exit(1)
		}
	}

	if err := run(ctx, c, flag.Args(), *minGames); err != nil {
		pterm.Error.Println(describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string, minGames int) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "tables":
		tables, err := c.Tables(ctx)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			pterm.Info.Println("no tables")
			return nil
		}
		return pterm.DefaultTable.WithHasHeader().WithData(tablesData(tables)).Render()

	case "table":
		id, err := argID(rest, 0, "tableId")
		if err != nil {
			return err
		}
		t, err := c.Table(ctx, id)
		if err != nil {
			return err
		}
		pterm.DefaultSection.Printfln("%s (%d/%d) %s", t.Name, t.SmallBlind, t.BigBlind, status(t.IsActive, "open", "closed"))
		return pterm.DefaultTable.WithHasHeader().WithData(playersData(t)).Render()

	case "balance":
		id, err := argID(rest, 0, "tableId")
		if err != nil {
			return err
		}
		b, err := c.Balance(ctx, id)
		if err != nil {
			return err
		}
		return pterm.DefaultBulletList.WithItems(bullets(balanceLines(b))).Render()

	case "stats":
		st, err := c.Statistics(ctx, minGames)
		if err != nil {
			return err
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(statsData(st)).Render(); err != nil {
			return err
		}
		pterm.Info.Printfln("biggest win: %s %s, biggest loss: %s %s",
			st.SingleGame.MaxWinPlayer, signed(st.SingleGame.MaxWin),
			st.SingleGame.MinLossPlayer, signed(st.SingleGame.MinLoss))
		return nil

	case "names":
		names, err := c.UniqueNames(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			pterm.Println(n)
		}
		return nil

	case "open", "close":
		id, err := argID(rest, 0, "tableId")
		if err != nil {
			return err
		}
		if err := c.SetTableActive(ctx, id, cmd == "open"); err != nil {
			return err
		}
		pterm.Success.Printfln("table %s %s", id, status(cmd == "open", "reopened", "closed"))
		return nil

	case "buyin", "cashout":
		tableID, err := argID(rest, 0, "tableId")
		if err != nil {
			return err
		}
		playerID, err := argID(rest, 1, "playerId")
		if err != nil {
			return err
		}
		if len(rest) < 3 {
			return errors.New("amount is required")
		}
		amount, err := strconv.ParseInt(rest[2], 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q is not a whole number", rest[2])
		}
		record := c.BuyIn
		if cmd == "cashout" {
			record = c.CashOut
		}
		entry, err := record(ctx, tableID, playerID, amount)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("%s of %d recorded at %s", cmd, entry.Amount, entry.Timestamp.Local().Format(time.Kitchen))
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func argID(args []string, i int, name string) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, args[i])
	}
	return id, nil
}

func bullets(lines []string) []pterm.BulletListItem {
	items := make([]pterm.BulletListItem, len(lines))
	for i, l := range lines {
		items[i] = pterm.BulletListItem{Level: 0, Text: l}
	}
	return items
}

// describe turns API errors into the server's message.
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
