package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParsedCustomerCSVRecord is one data row of a customer import file.
type ParsedCustomerCSVRecord struct {
	Line    int
	Code    string
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

// ParseCustomerCSV reads a customer CSV with a header row. `name` is
// required; `code`, `phone`, `email`, `address` and `notes` are optional.
// Rows that cannot be read are reported in skipped rather than failing the
// whole file.
func ParseCustomerCSV(r io.Reader) (records []ParsedCustomerCSVRecord, skipped []string, err error) {
	decoded, err := DecodeText(r)
	if err != nil {
		return nil, nil, err
	}
	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex, err := getColIndex(header, []string{"name"})
	if err != nil {
		return nil, nil, err
	}

	line := 1
	for {
		line++
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		parsed := ParsedCustomerCSVRecord{
			Line:    line,
			Code:    strings.ToUpper(get("code")),
			Name:    get("name"),
			Phone:   get("phone"),
			Email:   strings.ToLower(get("email")),
			Address: get("address"),
			Notes:   get("notes"),
		}
		if parsed.Name == "" {
			skipped = append(skipped, fmt.Sprintf("line %d: name is empty", line))
			continue
		}
		records = append(records, parsed)
	}
	return records, skipped, nil
}
