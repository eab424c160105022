package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVBasic(t *testing.T) {
	csv := "id,name,stock,price\nSKU-001,School Shirt,20,150\nSKU-002,School Skirt,5,220.50\n"

	records := ParseCSV(csv, []string{"stock", "price"})
	require.Len(t, records, 2)
	assert.Equal(t, "SKU-001", records[0]["id"])
	assert.Equal(t, "School Shirt", records[0]["name"])
	assert.Equal(t, 20.0, records[0]["stock"])
	assert.Equal(t, 220.5, records[1]["price"])
}

func TestParseCSVQuotedFields(t *testing.T) {
	csv := "id,name\nSKU-001,\"Shirt, long sleeve\"\nSKU-002,\"The \"\"Premium\"\" cut\"\n"

	records := ParseCSV(csv, nil)
	require.Len(t, records, 2)
	assert.Equal(t, "Shirt, long sleeve", records[0]["name"])
	assert.Equal(t, `The "Premium" cut`, records[1]["name"])
}

func TestParseCSVNumericCoercion(t *testing.T) {
	csv := "name,total\nA,\"1,234\"\nB,junk\nC,\n"

	records := ParseCSV(csv, []string{"total"})
	require.Len(t, records, 3)
	assert.Equal(t, 1234.0, records[0]["total"])
	// Unparseable and empty numeric cells default to 0.
	assert.Equal(t, 0.0, records[1]["total"])
	assert.Equal(t, 0.0, records[2]["total"])
}

func TestParseCSVSkipsBlankRowsAndEmptyHeaders(t *testing.T) {
	csv := "id,,name\r\nSKU-001,ignored,Shirt\r\n\r\n , , \r\n"

	records := ParseCSV(csv, nil)
	require.Len(t, records, 1)
	assert.Equal(t, "SKU-001", records[0]["id"])
	assert.Equal(t, "Shirt", records[0]["name"])
	// The unnamed middle column is dropped entirely.
	assert.Len(t, records[0], 2)
}

func TestParseCSVEmptyInput(t *testing.T) {
	assert.Empty(t, ParseCSV("", nil))
	assert.Empty(t, ParseCSV("id,name\n", nil))
}

func TestParseCSVIsIdempotent(t *testing.T) {
	csv := "id,stock\nSKU-001,7\n"

	first := ParseCSV(csv, []string{"stock"})
	second := ParseCSV(csv, []string{"stock"})
	assert.Equal(t, first, second)
}
