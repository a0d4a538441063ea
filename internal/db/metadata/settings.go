package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rebeliceyang/assetq/internal/models"
	"gopkg.in/yaml.v3"
)

const indexSettingsSQL = `SELECT mode, columns FROM public."AssetIndexSettings" ` +
	`WHERE "userId" = $1 AND "organizationId" = $2 LIMIT 1`

// Querier is the part of *sql.DB the loader needs
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// IndexSettings is one user's asset index configuration
type IndexSettings struct {
	Mode    models.Mode
	Columns models.Columns
	// Found is false when the user has no stored settings yet
	Found bool
}

// LoadIndexSettings reads the column registry and index mode of a user.
// Missing settings are not an error: the result is SIMPLE mode with no columns.
func LoadIndexSettings(ctx context.Context, db Querier, organizationID, userID string) (*IndexSettings, error) {
	var (
		mode    sql.NullString
		columns []byte
	)

	err := db.QueryRowContext(ctx, indexSettingsSQL, userID, organizationID).Scan(&mode, &columns)
	if errors.Is(err, sql.ErrNoRows) {
		return &IndexSettings{Mode: models.ModeSimple}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load index settings: %w", err)
	}

	cols, err := DecodeColumns(columns)
	if err != nil {
		return nil, err
	}

	return &IndexSettings{
		Mode:    models.ParseMode(mode.String),
		Columns: cols,
		Found:   true,
	}, nil
}

// DecodeColumns parses the stored columns JSON
func DecodeColumns(data []byte) (models.Columns, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return models.Columns{}, nil
	}

	var cols models.Columns
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	return normalize(cols), nil
}

// ReadColumnsFile loads a column registry from a YAML or JSON file
func ReadColumnsFile(path string) (models.Columns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns file: %w", err)
	}

	var cols models.Columns
	if err := yaml.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("failed to parse columns file: %w", err)
	}
	return normalize(cols), nil
}

// normalize drops unnamed columns, canonicalizes custom field types and
// orders columns by position
func normalize(cols models.Columns) models.Columns {
	out := make(models.Columns, 0, len(cols))
	for _, c := range cols {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if c.CustomFieldType != nil {
			t, ok := models.ParseCustomFieldType(string(*c.CustomFieldType))
			if ok {
				c.CustomFieldType = &t
			} else {
				c.CustomFieldType = nil
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
