package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"assetscan/internal/queue"
	"assetscan/internal/tui"
	"assetscan/internal/view"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI works without durable storage; history is just empty.
	st, err := openStore(cfg)
	if err != nil {
		log.Printf("Warning: %v (running without persistence)", err)
		st = nil
	} else {
		defer st.Close()
	}

	sess := newSession(cfg)
	var persister queue.Persister
	if st != nil {
		persister = st
	}
	proc := queue.New(sess, providers(cfg), persister, queueOptions(cfg))
	proc.Start()
	defer proc.Stop()

	eng := view.New(sess.Records, cfg.PageSize)

	app := tui.New(sess, proc, eng, st)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
