package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	apperrors "amoption/internal/errors"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// reportPlaces is the number of decimals prices are reported with.
const reportPlaces = 4

// Output handles formatted output for the CLI.
type Output struct {
	writer io.Writer
	format string
	money  accounting.Accounting
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		format = FormatText
	}
	return &Output{
		writer: cmd.OutOrStdout(),
		format: format,
		money:  accounting.Accounting{Symbol: "$", Precision: 2},
	}
}

func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return apperrors.NewValidationError("output", format, "must be text, json or yaml")
}

// Render writes v as JSON or YAML, or calls text for the text format.
func (o *Output) Render(v interface{}, text func(o *Output)) error {
	switch o.format {
	case FormatJSON:
		encoder := json.NewEncoder(o.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(o.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		text(o)
		return nil
	}
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Money formats an amount as currency.
func (o *Output) Money(amount float64) string {
	return o.money.FormatMoney(amount)
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(reportPlaces)
}

func roundPtr(v float64) *decimal.Decimal {
	d := round(v)
	return &d
}
