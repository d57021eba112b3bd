package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/pokearena/arena-cli/internal/arena"
	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/internal/store"
	"github.com/pokearena/arena-cli/pkg/pokedex"
)

var judgeOutput string

var judgeCmd = &cobra.Command{
	Use:   "judge <side-a> <side-b>",
	Short: "Judge a battle between two contestants",
	Long:  "Fetches both contestants concurrently, scores each side's offense against the other, and prints the verdict.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc := newService()
		defer svc.Close()

		ar := arena.New(svc, battle.NewEngine(battle.NewMatrix()), arena.Config{
			OverallDeadline: cfg.Arena.OverallDeadline(),
			Retry:           cfg.Retry.Resilience(),
		})

		verdict, err := ar.Judge(ctx, args[0], args[1])
		if err != nil {
			// Cobra prints the message once; the wrapped chain still
			// drives the exit code.
			return &judgeError{msg: explainJudgeError(err), err: err}
		}

		if err := saveVerdict(ctx, *verdict); err != nil {
			// History is best-effort; the verdict already stands.
			zap.L().Warn("verdict not recorded", zap.Error(err))
		}

		return writeVerdict(os.Stdout, *verdict, judgeOutput)
	},
}

func init() {
	judgeCmd.Flags().StringVarP(&judgeOutput, "output", "o", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(judgeCmd)
}

// newService builds the MCP-backed data service from config.
func newService() *pokedex.MCP {
	return pokedex.NewMCP(cfg.Pokedex.Endpoint,
		pokedex.WithRateLimit(rate.Limit(cfg.Pokedex.RateLimit), cfg.Pokedex.RateBurst),
	)
}

// writeVerdict renders the verdict in the requested format.
func writeVerdict(out io.Writer, v battle.Verdict, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode verdict")
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return eris.Wrap(enc.Encode(v), "encode verdict")
	case "text", "":
		fmt.Fprintln(out, summaryLine(v))
		fmt.Fprintf(out, "  %s\n", v.Reasoning)
		return nil
	}
	return eris.Errorf("unknown output format %q", format)
}

// summaryLine renders the one-line result for terminal use.
func summaryLine(v battle.Verdict) string {
	switch v.Winner {
	case battle.WinnerSideA:
		return fmt.Sprintf("%s defeats %s (%.2gx vs %.2gx, confidence %.0f%%)",
			v.SideA.Identifier, v.SideB.Identifier, v.ScoreAvsB, v.ScoreBvsA, v.Confidence*100)
	case battle.WinnerSideB:
		return fmt.Sprintf("%s defeats %s (%.2gx vs %.2gx, confidence %.0f%%)",
			v.SideB.Identifier, v.SideA.Identifier, v.ScoreBvsA, v.ScoreAvsB, v.Confidence*100)
	}
	return fmt.Sprintf("%s vs %s is a draw (both %.2gx, confidence %.0f%%)",
		v.SideA.Identifier, v.SideB.Identifier, v.ScoreAvsB, v.Confidence*100)
}

// judgeError carries the human-facing message while keeping the cause
// chain intact for exit-code classification.
type judgeError struct {
	msg string
	err error
}

func (e *judgeError) Error() string { return e.msg }
func (e *judgeError) Unwrap() error { return e.err }

// explainJudgeError renders a judgment failure for humans; the error
// itself still drives the exit code.
func explainJudgeError(err error) string {
	if errors.Is(err, arena.ErrNoCapability) {
		return "The data service does not advertise any capability for looking up contestants."
	}

	var oerr *arena.OrchestrationError
	if errors.As(err, &oerr) && oerr.Timeout {
		return fmt.Sprintf("Timed out acquiring %s before the deadline; try again or raise arena.overall_deadline_secs.", oerr.Side)
	}

	var u *arena.UnresolvableError
	if errors.As(err, &u) {
		return fmt.Sprintf("Could not resolve %q with the data service.", u.Identifier)
	}

	return fmt.Sprintf("Judgment failed: %v", err)
}

// saveVerdict records the verdict when a history path is configured.
func saveVerdict(ctx context.Context, v battle.Verdict) error {
	if cfg.History.Path == "" {
		return nil
	}

	st, err := store.NewSQLite(cfg.History.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.SaveVerdict(ctx, v)
}
