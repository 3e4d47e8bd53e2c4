package legal

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/utils"
)

//go:embed catalogue.json
var defaultCatalogue []byte

// DefaultCatalogue returns the built-in law catalogue shipped with the service.
func DefaultCatalogue() ([]models.LegalRecord, error) {
	return ParseCatalogue(defaultCatalogue)
}

// ParseCatalogue decodes a JSON array of records. Records without an id get a
// stable one derived from category, act and section.
func ParseCatalogue(data []byte) ([]models.LegalRecord, error) {
	var records []models.LegalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = RecordID(records[i])
		}
	}
	return records, nil
}

// ReadCatalogue is ParseCatalogue over a reader.
func ReadCatalogue(r io.Reader) ([]models.LegalRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

func RecordID(r models.LegalRecord) string {
	return utils.StableID(r.Category, r.Act, r.Section)
}
