package models

import "strings"

// CustomFieldPrefix marks column and filter names that refer to custom fields
const CustomFieldPrefix = "cf_"

// CustomFieldType is the value type tag of a tenant-defined custom field
type CustomFieldType string

const (
	CustomFieldText          CustomFieldType = "TEXT"
	CustomFieldMultilineText CustomFieldType = "MULTILINE_TEXT"
	CustomFieldDate          CustomFieldType = "DATE"
	CustomFieldBoolean       CustomFieldType = "BOOLEAN"
	CustomFieldOption        CustomFieldType = "OPTION"
	CustomFieldNumber        CustomFieldType = "NUMBER"
	CustomFieldAmount        CustomFieldType = "AMOUNT"
)

// ParseCustomFieldType converts a tag to a CustomFieldType, case-insensitively
func ParseCustomFieldType(s string) (CustomFieldType, bool) {
	t := CustomFieldType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case CustomFieldText, CustomFieldMultilineText, CustomFieldDate, CustomFieldBoolean,
		CustomFieldOption, CustomFieldNumber, CustomFieldAmount:
		return t, true
	}
	return "", false
}

// Column describes one entry of the asset index column registry
type Column struct {
	Name            string           `json:"name" yaml:"name"`
	Visible         bool             `json:"visible" yaml:"visible"`
	Position        int              `json:"position" yaml:"position"`
	CustomFieldType *CustomFieldType `json:"cfType,omitempty" yaml:"cfType,omitempty"`
}

// IsCustomField reports whether the column refers to a custom field
func (c Column) IsCustomField() bool {
	return strings.HasPrefix(c.Name, CustomFieldPrefix)
}

// Columns is the ordered column registry supplied by the settings subsystem
type Columns []Column

// Find returns the column with the given name
func (cs Columns) Find(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// BarcodePrefix marks column and filter names that refer to a barcode type
const BarcodePrefix = "barcode_"

// BarcodeTypes is the allow-list of barcode symbologies an asset can carry
var BarcodeTypes = []string{"Code128", "Code39", "DataMatrix", "ExternalQR", "EAN13"}

// BarcodeType extracts the barcode type from a "barcode_<TYPE>" name
func BarcodeType(name string) (string, bool) {
	if !strings.HasPrefix(name, BarcodePrefix) {
		return "", false
	}
	t := strings.TrimPrefix(name, BarcodePrefix)
	for _, known := range BarcodeTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}
