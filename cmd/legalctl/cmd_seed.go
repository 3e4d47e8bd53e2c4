package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalease/backend/internal/bootstrap"
	"github.com/legalease/backend/internal/ingestion"
	"github.com/legalease/backend/internal/legal"
	"github.com/legalease/backend/internal/storage/models"
)

var (
	seedFile       string
	seedBucket     string
	seedKey        string
	seedRegion     string
	seedEndpoint   string
	seedIfEmpty    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load law records into the store",
	Long: `Load law records into the legal_dataset collection.

Sources, in order of precedence:
  --s3-bucket/--s3-key  a JSON dataset object in S3
  --file                a local JSON dataset
  (none)                the built-in catalogue

A dataset is a JSON array of {id, category, act, section, description,
punishment}. Records without an id get a stable one.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Local JSON dataset")
	seedCmd.Flags().StringVar(&seedBucket, "s3-bucket", "", "S3 bucket holding the dataset")
	seedCmd.Flags().StringVar(&seedKey, "s3-key", "legal_dataset.json", "S3 object key of the dataset")
	seedCmd.Flags().StringVar(&seedRegion, "s3-region", "", "AWS region (default from the AWS environment)")
	seedCmd.Flags().StringVar(&seedEndpoint, "s3-endpoint", "", "Custom S3-compatible endpoint")
	seedCmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "Only seed the built-in catalogue when the store is empty")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	processor := ingestion.NewProcessor(store)

	if seedIfEmpty && seedFile == "" && seedBucket == "" {
		seeded, err := processor.SeedIfEmpty(ctx)
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded built-in catalogue.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Catalogue already present, nothing to do.")
		}
		return nil
	}

	records, source, err := loadRecords(ctx)
	if err != nil {
		return err
	}

	result, err := processor.Ingest(ctx, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d records from %s (%d skipped, %d failed).\n",
		result.Uploaded, source, result.Skipped, len(result.Failed))
	for _, id := range result.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", id)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d records failed to upload", len(result.Failed))
	}
	return nil
}

func loadRecords(ctx context.Context) ([]models.LegalRecord, string, error) {
	switch {
	case seedBucket != "":
		client, err := ingestion.NewS3Client(ctx, ingestion.S3Config{
			Region:   seedRegion,
			Endpoint: seedEndpoint,
		})
		if err != nil {
			return nil, "", err
		}
		records, err := ingestion.LoadS3(ctx, client, seedBucket, seedKey)
		return records, fmt.Sprintf("s3://%s/%s", seedBucket, seedKey), err

	case seedFile != "":
		records, err := ingestion.LoadFile(seedFile)
		return records, seedFile, err

	default:
		records, err := legal.DefaultCatalogue()
		return records, "built-in catalogue", err
	}
}
