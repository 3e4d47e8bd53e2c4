package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/legalease/backend/internal/bootstrap"
	"github.com/legalease/backend/internal/evaluation"
)

var evalFile string

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure matcher accuracy on sample questions",
	Long: `Run every question of a dataset through the matcher against the
stored catalogue and report how often the expected category wins.

Dataset format: {"items": [{"question": "...", "expectedCategory": "..."}]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		f, err := os.Open(evalFile)
		if err != nil {
			return fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()

		dataset, err := evaluation.LoadDataset(f)
		if err != nil {
			return err
		}

		storeCfg, err := storeConfig()
		if err != nil {
			return err
		}
		store, err := bootstrap.OpenStore(ctx, storeCfg)
		if err != nil {
			return err
		}
		defer bootstrap.CloseStore(store)

		report, err := evaluation.NewEvaluator(store).RunDatasetEvaluation(ctx, dataset)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), evaluation.GenerateReport(report))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "", "Evaluation dataset (JSON)")
	_ = evalCmd.MarkFlagRequired("file")
}
