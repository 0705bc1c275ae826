package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/candidate"
	"github.com/spigell/recruit-bot/internal/flow"
	"github.com/spigell/recruit-bot/internal/scoring"
)

const (
	chatQuit            = "/quit"
	chatUpload          = "/upload"
	defaultChatIdentity = "cli:local"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the screening bot from the terminal",
	Long: `Runs the conversation locally against the configured database.
Type /upload <path> to submit a document in the CV or cover letter step and /quit to leave.
When the conversation completes the scoring pipeline runs inline.`,
	Run: func(cmd *cobra.Command, _ []string) {
		identity, _ := cmd.Flags().GetString("as")
		chat(identity)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("as", defaultChatIdentity, "identity of the simulated candidate")
}

func chat(identity string) {
	ctx := context.Background()
	logger := newLogger()

	c, err := setup(ctx, logger, true)
	if err != nil {
		logger.Fatal("starting the chat", zap.Error(err))
	}
	defer c.Close()

	engine := flow.New(c.store, c.assistant, c.assistant, logger)
	prompt := promptui.Prompt{Label: "Du"}

	fmt.Printf("Chatting as %s. Type %s to leave.\n\n", identity, chatQuit)

	for {
		input, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		input = strings.TrimSpace(input)
		if input == chatQuit {
			return
		}

		res, err := chatTurn(ctx, c, engine, identity, input)
		if err != nil {
			logger.Error("processing message", zap.Error(err))
			continue
		}
		fmt.Printf("\nBot: %s\n\n", res.Reply)

		if res.NeedsScoring() {
			printScore(ctx, c, res.Candidate.ID)
		}
	}
}

// chatTurn mirrors what the webhook does for one inbound message.
func chatTurn(ctx context.Context, c *components, engine *flow.Engine, identity, input string) (flow.Result, error) {
	rec, err := c.store.GetOrCreate(ctx, identity)
	if err != nil {
		return flow.Result{}, fmt.Errorf("load candidate: %w", err)
	}

	message := input
	if path, ok := strings.CutPrefix(input, chatUpload); ok {
		message, err = chatUploadDocument(ctx, c, rec, strings.TrimSpace(path))
		if err != nil {
			return flow.Result{}, err
		}
	}

	if err := c.store.AppendMessage(ctx, rec.ID, candidate.RoleUser, input); err != nil {
		return flow.Result{}, fmt.Errorf("log message: %w", err)
	}

	res, err := engine.Process(ctx, identity, message)
	if err != nil {
		return flow.Result{}, err
	}

	if err := c.store.AppendMessage(ctx, rec.ID, candidate.RoleBot, res.Reply); err != nil {
		c.logger.Warn("bot message not logged", zap.Error(err))
	}
	return res, nil
}

func chatUploadDocument(ctx context.Context, c *components, rec *candidate.Candidate, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("usage: %s <path>", chatUpload)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve upload path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	var upd candidate.Update
	switch rec.Stage {
	case candidate.StageCV:
		upd.CVRef = &abs
	case candidate.StageCover:
		upd.CoverLetterRef = &abs
	default:
		return "", fmt.Errorf("uploads are accepted in the CV and cover letter steps only, current step is %s", rec.Stage)
	}

	if _, err := c.store.Update(ctx, rec.ID, upd); err != nil {
		return "", fmt.Errorf("store document reference: %w", err)
	}
	return flow.UploadDone, nil
}

func printScore(ctx context.Context, c *components, id uint) {
	fmt.Println("Scoring your documents...")

	if err := c.pipeline.Run(ctx, id); err != nil {
		c.logger.Error("scoring failed", zap.Error(err))
		return
	}

	rec, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Error("loading scored candidate", zap.Error(err))
		return
	}

	fmt.Printf("\nQualification score: %d (%s)\n", rec.QualificationScore, scoring.Tier(rec.QualificationScore))
	fmt.Printf("Profile score: %d\n", scoring.Score(scoring.AttributesFrom(rec)))
	if a, ok := rec.Assessment(); ok && a.Summary != "" {
		fmt.Printf("Summary: %s\n", a.Summary)
	}
	fmt.Printf("\n%s\n", scoring.Feedback(rec.QualificationScore))
}
