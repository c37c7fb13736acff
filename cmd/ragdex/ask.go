package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain/batch"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

var (
	askFiles   []string
	askSession string
	askKeep    bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Index local files and answer one question",
	Long: `Indexes the given files into a throwaway session, answers the question
from them and removes the session again. With --session the files go into
that session instead and --keep leaves them indexed.`,
	Example: `  ragdex ask --file report.pdf --file notes.txt "What were the Q3 risks?"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "file to index (repeatable)")
	askCmd.Flags().StringVar(&askSession, "session", "", "session to use (default: a new uuid)")
	askCmd.Flags().BoolVar(&askKeep, "keep", false, "keep the indexed documents after answering")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the reply as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Answer  string   `json:"answer"`
	Path    string   `json:"path"`
	Query   string   `json:"query"`
	RAGUsed bool     `json:"rag_used"`
	Sources []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	session := askSession
	if session == "" {
		session = uuid.NewString()
	}
	if !askKeep {
		defer func() {
			if _, err := a.sessions.Clear(context.Background(), session); err != nil {
				logger.Warn("Failed to clear session", zap.String("session", session), zap.Error(err))
			}
		}()
	}

	files := make([]ingestuc.File, 0, len(askFiles))
	for _, name := range askFiles {
		data, err := os.ReadFile(name) //nolint:gosec // user-supplied path is the point
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		files = append(files, ingestuc.File{Name: name, Data: data})
	}

	var failed []error
	for _, res := range a.ingest.Upload(ctx, session, files) {
		if res.Status() == batch.StatusOK {
			cmd.PrintErrf("indexed %s (%d chunks)\n", res.SourceName(), res.Chunks())
			continue
		}
		cmd.PrintErrf("skipped %s: %v\n", res.SourceName(), res.Err())
		failed = append(failed, res.Err())
	}
	if len(files) > 0 && len(failed) == len(files) {
		return fmt.Errorf("no file could be indexed: %w", errors.Join(failed...))
	}

	reply, err := a.chat.Ask(ctx, session, args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	sources := make([]string, len(reply.Hits))
	for i, h := range reply.Hits {
		sources[i] = fmt.Sprintf("%s, chunk %d (%.3f)", h.SourceName(), h.ChunkIndex(), h.Score())
	}

	if askJSON {
		data, err := json.MarshalIndent(askOutput{
			Answer:  reply.Answer,
			Path:    string(reply.Path),
			Query:   reply.Query,
			RAGUsed: reply.RAGUsed,
			Sources: sources,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reply: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(reply.Answer)
	if len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range sources {
			cmd.Printf("  [%d] %s\n", i+1, s)
		}
	}
	return nil
}
