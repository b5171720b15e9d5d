package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toM7x7/LLM-mindmap/pkg/cli"
	"github.com/toM7x7/LLM-mindmap/pkg/session"
)

func newEditCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runEdit(ctx, owner)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "local", "name under which the map and chat are saved")
	return cmd
}

func runEdit(ctx context.Context, owner string) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sm := session.NewSessionManager(session.Options{
		Bridge:        a.bridge,
		Store:         a.snapshots,
		Events:        a.data.EventManager,
		HistoryDepth:  a.cfg.HistoryDepth,
		AutoSave:      true,
		RestoreOnOpen: true,
		Logger:        a.logger,
	})
	defer sm.Stop()

	id, err := sm.SessionAdd(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	prefs, err := cli.LoadPrefs(a.cfg.CLIConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load CLI preferences: %w", err)
	}
	c, err := cli.NewCLI(sm, id, prefs, os.Stdout, a.logger)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}
