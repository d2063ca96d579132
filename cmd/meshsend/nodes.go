package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"meshsend/config"
	"meshsend/nodemap"
)

func (a *app) newNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List node aliases from the config file",
		Long: `List the aliases defined in the "nodes:" section of the config file.
An alias can be used anywhere a node ID is accepted, e.g. --to-id alice.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.nodes()
		},
	}
}

func (a *app) nodes() error {
	cfg, err := a.loadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return &configError{err: err}
	}
	if err != nil {
		return err
	}

	nm := nodemap.FromConfig(cfg.Nodes)
	if nm.Len() == 0 {
		fmt.Fprintln(a.stdout, "No node aliases configured")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tHEX\tDECIMAL")
	for _, n := range nm.List() {
		if n.Err != nil {
			fmt.Fprintf(w, "%s\t%s\tinvalid: %v\t\n", n.Name, n.ID, n.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", n.Name, n.ID, n.Addr, uint32(n.Addr))
	}
	return w.Flush()
}
