package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/worker"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore [candidate-id]",
	Short: "Run the scoring pipeline for one candidate or for every pending one",
	Args: func(cmd *cobra.Command, args []string) error {
		pending, _ := cmd.Flags().GetBool("pending")
		switch {
		case pending && len(args) > 0:
			return errors.New("either a candidate id or --pending, not both")
		case !pending && len(args) != 1:
			return errors.New("a candidate id is required unless --pending is set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		pending, _ := cmd.Flags().GetBool("pending")
		rescore(args, pending)
	},
}

func init() {
	rootCmd.AddCommand(rescoreCmd)

	rescoreCmd.Flags().Bool("pending", false, "score every completed candidate that has a CV but no score yet")
}

func rescore(args []string, pending bool) {
	ctx := context.Background()
	logger := newLogger()

	c, err := setup(ctx, logger, true)
	if err != nil {
		logger.Fatal("starting the rescore", zap.Error(err))
	}
	defer c.Close()

	orchestrator := worker.NewOrchestrator(c.pipeline, c.locker, worker.OrchestratorConfig{
		LockTTL: c.config.Worker.LockTTL,
	}, logger)

	var ids []uint
	if pending {
		// Operator runs ignore the sweeper's attempt cap.
		ids, err = c.store.PendingScoring(ctx, time.Now(), 0)
		if err != nil {
			logger.Fatal("listing pending candidates", zap.Error(err))
		}
	} else {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			logger.Fatal("invalid candidate id", zap.String("id", args[0]))
		}
		ids = []uint{uint(id)}
	}

	logger.Info("rescoring candidates", zap.Int("count", len(ids)))

	failed := 0
	for _, id := range ids {
		if err := orchestrator.RunOnce(ctx, id); err != nil {
			failed++
			logger.Error("scoring run failed", zap.Uint("candidate_id", id), zap.Error(err))
		}
	}

	if failed > 0 {
		logger.Fatal("exiting", zap.Error(fmt.Errorf("%d of %d runs failed", failed, len(ids))))
	}
	logger.Info("exiting", zap.String("reason", "all runs finished"))
}
