package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/legalease/backend/internal/bootstrap"
	"github.com/legalease/backend/internal/chatbot"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the law records in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		storeCfg, err := storeConfig()
		if err != nil {
			return err
		}

		store, err := bootstrap.OpenStore(ctx, storeCfg)
		if err != nil {
			return err
		}
		defer bootstrap.CloseStore(store)

		records, err := chatbot.NewEngine(store, nil, chatbot.WithHistory(false)).Records(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tACT\tSECTION")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Category, r.Act, r.Section)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d records\n", len(records))
		return nil
	},
}
