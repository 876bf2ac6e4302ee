package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/analytics/domain"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import event documents from a file",
	Long:  `Import a JSON file holding one event document or an array of them`,
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file with event documents")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(importFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", importFile)
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	result := a.importer.ImportEvents(context.Background(), docs)
	log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Import finished")

	if result.Failed > 0 {
		return errors.Errorf("%d of %d events failed to import", result.Failed, len(docs))
	}
	return nil
}

// decodeDocuments accepts a single document or an array
func decodeDocuments(data []byte) ([]domain.EventDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var docs []domain.EventDocument
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, errors.Wrap(err, "failed to decode event documents")
		}
		return docs, nil
	}

	var doc domain.EventDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode event document")
	}
	return []domain.EventDocument{doc}, nil
}
