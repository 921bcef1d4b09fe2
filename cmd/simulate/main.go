// Command simulate runs prediction-market games from the command line and
// prints a settlement summary, optionally dumping the full event log as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/profile"
	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
	"github.com/babylon/sim-engine/internal/question"
	"github.com/babylon/sim-engine/internal/sim"
)

func main() {
	var (
		ticker     = flag.String("question", "SIM-election-POLITICS-20261103", "question ticker (SIM-{topic}-{CATEGORY}-{YYYYMMDD})")
		outcome    = flag.Bool("outcome", true, "hidden ground truth the market resolves to")
		agents     = flag.Int("agents", 10, "number of agents")
		days       = flag.Int("days", 30, "simulation horizon in days")
		liquidity  = flag.Float64("b", 0, "LMSR liquidity parameter (0 = derive from game size)")
		insiderPct = flag.Float64("insiders", 0.3, "fraction of agents with early clue access")
		seed       = flag.Int64("seed", 1, "base random seed; run i uses seed+i")
		runs       = flag.Int("runs", 1, "number of games to run")
		eventsOut  = flag.String("events", "", "write the event logs as JSON lines to this file")
		cpuprofile = flag.Bool("cpuprofile", false, "write a CPU profile to the current directory")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *cpuprofile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	if _, err := question.ParseTicker(*ticker); err != nil {
		slog.Error("invalid question ticker", "err", err)
		os.Exit(1)
	}

	b := decimal.NewFromFloat(*liquidity)
	if b.IsZero() {
		derived, err := question.DeriveLiquidity(*agents, *days, decimal.NewFromInt(100))
		if err != nil {
			slog.Error("cannot derive liquidity", "err", err)
			os.Exit(1)
		}
		b = derived
	}

	var sink *json.Encoder
	if *eventsOut != "" {
		f, err := os.Create(*eventsOut)
		if err != nil {
			slog.Error("cannot open events file", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		sink = json.NewEncoder(f)
	}

	for i := 0; i < *runs; i++ {
		cfg := model.GameConfig{
			Question:           *ticker,
			Outcome:            *outcome,
			NumAgents:          *agents,
			Duration:           *days,
			LiquidityParameter: b,
			InsiderPercentage:  *insiderPct,
			Seed:               *seed + int64(i),
		}

		game, err := sim.NewGame(cfg)
		if err != nil {
			slog.Error("invalid configuration", "err", err)
			os.Exit(1)
		}

		result, err := game.Run()
		if err != nil {
			slog.Error("run failed", "run", i, "err", err)
			os.Exit(1)
		}

		if sink != nil {
			for _, e := range result.Events {
				if err := sink.Encode(e); err != nil {
					slog.Error("write event", "err", err)
					os.Exit(1)
				}
			}
		}

		printSummary(i, cfg, result)
	}
}

func printSummary(run int, cfg model.GameConfig, result *model.GameResult) {
	fmt.Printf("run %d  seed=%d  question=%s\n", run, cfg.Seed, result.Question)
	fmt.Printf("  outcome=%v  final_price_yes=%s  volume=%s  events=%d\n",
		result.Outcome,
		result.Market.PriceYes.StringFixed(4),
		result.Market.TotalVolume.String(),
		len(result.Events),
	)
	fmt.Printf("  winners=%d  losers=%d\n", len(result.Winners), len(result.Losers))

	for _, a := range result.Agents {
		fmt.Printf("    %s  role=%-8s  bets=%-3d  net=%-8s  pnl=%-10s  rep=%+d\n",
			a.ID, a.Role, a.BetsPlaced,
			a.NetPosition().String(),
			a.FinalPnL.StringFixed(2),
			a.Reputation,
		)
	}
}
