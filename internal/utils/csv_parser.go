package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
	ErrInvalidRowData = errors.New("invalid row data")
)

// CSVHeader is the canonical column order written by WriteEntries.
var CSVHeader = []string{"table_id", "kind", "key", "sub_key", "value"}

// RequiredColumns defines the columns that must be present in the CSV.
var RequiredColumns = []string{
	"table_id",
	"kind",
	"key",
	"value",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// table_id aliases
	"table":    "table_id",
	"tableid":  "table_id",
	"table id": "table_id",
	"id":       "table_id",

	// kind aliases
	"type":       "kind",
	"table_kind": "kind",
	"table kind": "kind",

	// key aliases
	"band":   "key",
	"tier":   "key",
	"rating": "key",
	"up_to":  "key",
	"upto":   "key",

	// sub_key aliases
	"subkey":          "sub_key",
	"sub key":         "sub_key",
	"external_rating": "sub_key",
	"collateral_band": "sub_key",
	"column":          "sub_key",

	// value aliases
	"spread":  "value",
	"rate":    "value",
	"premium": "value",
	"percent": "value",
}

// kindAliases maps the labels maintainers use in spreadsheets to table kinds.
var kindAliases = map[string]ratetable.TableKind{
	"amount_band":           ratetable.KindAmountBand,
	"amount":                ratetable.KindAmountBand,
	"band":                  ratetable.KindAmountBand,
	"rating_flat":           ratetable.KindRatingFlat,
	"rating":                ratetable.KindRatingFlat,
	"rating_external":       ratetable.KindRatingExternal,
	"external":              ratetable.KindRatingExternal,
	"rating_collateral":     ratetable.KindRatingCollateral,
	"collateral":            ratetable.KindRatingCollateral,
	"tenure_premium":        ratetable.KindTenurePremium,
	"tenure":                ratetable.KindTenurePremium,
	"collateral_concession": ratetable.KindCollateralConcession,
	"concession":            ratetable.KindCollateralConcession,
}

// CSVParser handles parsing of rate table CSV files.
type CSVParser struct {
	columnMapping map[string]int
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseEntries parses CSV content into rate table entries. Rows that fail
// are reported with their line number and skipped.
func (p *CSVParser) ParseEntries(content string) ([]ratetable.Entry, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.Comment = '#'

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	// Build column mapping
	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	// Parse data rows
	var entries []ratetable.Entry
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		if isBlank(record) {
			continue
		}

		entry, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return entries, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := normalizeColumn(col)
		p.columnMapping[normalized] = i
	}

	// Check for required columns
	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row into an Entry.
func (p *CSVParser) parseRow(record []string) (ratetable.Entry, error) {
	getValue := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	tableID := getValue("table_id")
	if tableID == "" {
		return ratetable.Entry{}, fmt.Errorf("%w: empty table_id", ErrInvalidRowData)
	}

	kind, ok := kindAliases[strings.ReplaceAll(strings.ToLower(getValue("kind")), " ", "_")]
	if !ok {
		return ratetable.Entry{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRowData, getValue("kind"))
	}

	key, subKey, err := canonicalKeys(kind, getValue("key"), getValue("sub_key"))
	if err != nil {
		return ratetable.Entry{}, err
	}

	value, err := parseDecimal(getValue("value"))
	if err != nil {
		return ratetable.Entry{}, fmt.Errorf("invalid value: %w", err)
	}

	return ratetable.Entry{
		TableID: tableID,
		Kind:    kind,
		Key:     key,
		SubKey:  subKey,
		Value:   value,
	}, nil
}

// canonicalKeys rewrites spreadsheet spellings ("≤50L", "cr3", "75-100%",
// "A1+") into the keys the store indexes by.
func canonicalKeys(kind ratetable.TableKind, key, subKey string) (string, string, error) {
	switch kind {
	case ratetable.KindAmountBand:
		upTo, err := parseDecimal(strings.NewReplacer("<=", "", "≤", "", "lakhs", "", "lakh", "", "L", "").Replace(key))
		if err != nil {
			return "", "", fmt.Errorf("invalid band upper bound %q: %w", key, err)
		}
		return upTo.String(), subKey, nil

	case ratetable.KindRatingFlat, ratetable.KindRatingExternal, ratetable.KindRatingCollateral:
		tier, err := canonicalTier(key)
		if err != nil {
			return "", "", err
		}
		switch kind {
		case ratetable.KindRatingExternal:
			ext, err := models.ParseExternalRating(subKey)
			if err != nil {
				return "", "", err
			}
			subKey = string(ext)
		case ratetable.KindRatingCollateral:
			band, err := models.ParseCollateralBand(subKey)
			if err != nil {
				return "", "", err
			}
			subKey = string(band)
		}
		return tier, subKey, nil

	case ratetable.KindTenurePremium:
		band, err := models.ParseTenureBand(key)
		if err != nil {
			return "", "", err
		}
		return string(band), subKey, nil

	case ratetable.KindCollateralConcession:
		band, err := models.ParseCollateralBand(key)
		if err != nil {
			return "", "", err
		}
		return string(band), subKey, nil
	}

	return key, subKey, nil
}

func canonicalTier(key string) (string, error) {
	collapsed := strings.ToUpper(strings.NewReplacer(" ", "", "–", "-", "—", "-").Replace(key))
	switch collapsed {
	case models.CollapsedHighRiskTier, "CR8-10", "CR8+":
		return models.CollapsedHighRiskTier, nil
	}
	tier, err := models.ParseInternalRating(key)
	if err != nil {
		return "", err
	}
	return string(tier), nil
}

// WriteEntries writes entries in the canonical column order.
func WriteEntries(w io.Writer, entries []ratetable.Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		record := []string{e.TableID, string(e.Kind), e.Key, e.SubKey, e.Value.String()}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", e.TableID, e.Key, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// parseDecimal parses a percent or lakh figure, handling common formats.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty value")
	}

	// Remove commas, percent signs and currency symbols
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)

	return decimal.NewFromString(s)
}

func normalizeColumn(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	if alias, ok := ColumnAliases[normalized]; ok {
		return alias
	}
	return normalized
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) (*CSVValidationResult, error) {
	result := &CSVValidationResult{
		Valid:          false,
		RowCount:       0,
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result, nil
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	// Read header
	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result, nil
	}

	// Normalize and check columns
	normalizedColumns := make(map[string]bool)
	for _, col := range header {
		normalizedColumns[normalizeColumn(col)] = true
		result.Columns = append(result.Columns, col)
	}

	// Check for required columns
	for _, required := range RequiredColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	// Count rows
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		if isBlank(record) {
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result, nil
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
