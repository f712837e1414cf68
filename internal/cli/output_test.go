package cli

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Skip   string          `json:"skip,omitempty"`
}

func TestPrinter(t *testing.T) {
	t.Parallel()

	value := sample{Name: "Acme", Amount: decimal.RequireFromString("1500000.50")}

	var buf bytes.Buffer

	printer, err := NewPrinter(&buf, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, printer.Print(value))
	assert.JSONEq(t, `{"name":"Acme","amount":"1500000.5"}`, buf.String())

	buf.Reset()

	printer, err = NewPrinter(&buf, FormatYAML)
	require.NoError(t, err)
	require.NoError(t, printer.Print(value))
	assert.Equal(t, "amount: \"1500000.5\"\nname: Acme\n", buf.String())

	_, err = NewPrinter(&buf, "xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
