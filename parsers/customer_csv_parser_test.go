package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func TestParseCustomerCSV(t *testing.T) {
	input := "\xEF\xBB\xBFCode,Name,Phone,Email\n" +
		"cl00007,Ada Lovelace,555-1,ADA@example.com\n" +
		",Grace Hopper,555-2,\n" +
		"CL00009,,555-3,\n"

	records, skipped, err := ParseCustomerCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CL00007", records[0].Code)
	assert.Equal(t, "ada@example.com", records[0].Email)
	assert.Equal(t, "", records[1].Code)
	assert.Equal(t, 3, records[1].Line)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "line 4")
}

func TestParseCustomerCSVShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().String("name,address\n山田太郎,東京都\n")
	require.NoError(t, err)

	records, skipped, err := ParseCustomerCSV(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "山田太郎", records[0].Name)
	assert.Equal(t, "東京都", records[0].Address)
}

func TestParseCustomerCSVRequiresNameHeader(t *testing.T) {
	_, _, err := ParseCustomerCSV(strings.NewReader("code,phone\nCL1,555\n"))
	require.ErrorContains(t, err, "required header not found: name")
}

func TestParseCustomerCSVEmpty(t *testing.T) {
	_, _, err := ParseCustomerCSV(strings.NewReader(""))
	require.Error(t, err)
}
