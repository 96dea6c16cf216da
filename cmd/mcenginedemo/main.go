// Command mcenginedemo is a thin, non-interactive demonstration of
// internal/engine: it resolves one version's dependencies and prints
// the resulting launch plan. It does not parse a persisted config
// file, does not prompt interactively, and never execs the printed
// command: starting and supervising that process is left to the
// caller.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/bombsimon/logrusr/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brackenforge/mcengine/internal/depsbuilder"
	"github.com/brackenforge/mcengine/internal/engine"
)

var (
	gameDir     string
	versionID   string
	playerName  string
	javaPath    string
	workerCount int
	skipCached  bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcenginedemo",
		Short: "resolve a version's dependencies and print its launch plan",
		RunE:  run,
	}
	cmd.Flags().StringVar(&gameDir, "game-dir", ".", "root directory containing versions/libraries/assets")
	cmd.Flags().StringVar(&versionID, "version", "", "version id to resolve (required)")
	cmd.Flags().StringVar(&playerName, "player-name", "", "player name; empty selects offline demo mode")
	cmd.Flags().StringVar(&javaPath, "java-path", "", "explicit java executable; empty auto-detects or downloads")
	cmd.Flags().IntVar(&workerCount, "workers", 4, "worker pool size")
	cmd.Flags().BoolVar(&skipCached, "skip-cached", false, "assume files are already materialized and only rebuild the plan")
	cmd.MarkFlagRequired("version")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	logrusLog := logrus.New()
	logrusLog.SetOutput(os.Stdout)
	logrusLog.SetFormatter(&logrus.TextFormatter{})
	log := logrusr.New(logrusLog)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := engine.DefaultConfig(gameDir)
	cfg.WorkerCount = workerCount
	cfg.JavaPath = javaPath

	e := engine.New(cfg, engine.WithLogger(log))

	result, err := e.BuildPlan(ctx, engine.ResolveOptions{
		VersionID: versionID,
		Plan: depsbuilder.PlanOptions{
			PlayerName: playerName,
		},
		SkipIfCached: skipCached,
	})
	if err != nil {
		return fmt.Errorf("building plan: %w", err)
	}

	out, err := json.MarshalIndent(result.Plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling launch plan: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
