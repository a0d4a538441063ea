package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rebeliceyang/assetq/internal/models"
)

// Selection is a resolved bulk selection ready to be written out
type Selection struct {
	OrganizationID string      `json:"organizationId"`
	Mode           models.Mode `json:"mode"`
	Filters        string      `json:"filters,omitempty"`
	ResolvedAt     time.Time   `json:"resolvedAt"`
	IDs            []string    `json:"ids"`
}

// Export writes the selection as CSV or JSON depending on the extension of path
func Export(sel Selection, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ExportToCSV(sel, path)
	case ".json":
		return ExportToJSON(sel, path)
	default:
		return fmt.Errorf("unsupported export format %q, use .csv or .json", filepath.Ext(path))
	}
}

// ExportToCSV writes one asset ID per row
func ExportToCSV(sel Selection, path string) error {
	// Create the file
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"asset_id", "organization_id"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, id := range sel.IDs {
		if err := writer.Write([]string{id, sel.OrganizationID}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return nil
}

// ExportToJSON writes the selection with its context as indented JSON
func ExportToJSON(sel Selection, path string) error {
	if sel.IDs == nil {
		sel.IDs = []string{}
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selection to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}
