// Command score scores a single transaction from the command line.
//
// Usage:
//
//	score '{"amount": 91000, "status": "failed", "retry": true}'
//	echo '{"amount": 50}' | score -
//
// Flags:
//
//	-model data/model.json   model artifact path
//	-threshold 0.7           high-severity threshold
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/model"
	"github.com/mbd888/fraudwatch/internal/scoring"
)

func main() {
	modelPath := flag.String("model", "data/model.json", "model artifact path")
	threshold := flag.Float64("threshold", scoring.DefaultThreshold, "high-severity threshold")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: score [flags] '<transaction json>' (or - for stdin)")
		os.Exit(2)
	}
	if *threshold < 0 || *threshold > 1 {
		fmt.Fprintln(os.Stderr, "threshold must be in [0,1]")
		os.Exit(2)
	}

	raw := flag.Arg(0)
	if raw == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		raw = string(data)
	}

	var tx feature.Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		fmt.Fprintf(os.Stderr, "transaction must be a JSON object: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	artifact := model.LoadOrDefault(*modelPath, logger)
	scorer := scoring.NewScorer(artifact, logger)

	risk, _ := scorer.Score(feature.Extract(tx))
	severity := scoring.Classify(risk, *threshold)

	out, _ := json.Marshal(map[string]any{
		"risk":  math.Round(risk*1000) / 1000,
		"level": severity,
	})
	fmt.Println(string(out))
}
