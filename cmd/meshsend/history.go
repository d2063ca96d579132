package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"meshsend/config"
	"meshsend/storage"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently sent messages",
		Long: `Show messages recorded in the local history database, newest first.
Recording is enabled with "history.enabled: true" in the config file.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.history(limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultListLimit, "number of messages to show")
	return cmd
}

func (a *app) history(limit int) error {
	cfg, err := a.loadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return &configError{err: err}
	}
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	recs, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.stdout, "No messages recorded")
		if !cfg.History.Enabled {
			fmt.Fprintln(a.stdout, "History is disabled; set history.enabled: true in", a.configPath)
		}
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATUS\tFROM\tTO\tCHANNEL\tPAYLOAD")
	for _, r := range recs {
		payload := r.Payload
		if r.Error != "" {
			payload = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Status, r.FromID, r.ToID, r.Channel, payload)
	}
	return w.Flush()
}
