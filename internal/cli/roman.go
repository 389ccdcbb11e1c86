package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jaa/ytbr/internal/exitcode"
	"github.com/jaa/ytbr/internal/roman"
	"github.com/spf13/cobra"
)

func newRomanCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "roman NUMERAL [NUMERAL...]",
		Short: "Convert Roman numerals to integers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				value, err := roman.ToInt(arg)
				if err != nil {
					return withExitCode(exitcode.InvalidUsage, fmt.Errorf("convert %q: %w", arg, err))
				}
				if app.Opts.JSON {
					encoded, _ := json.Marshal(map[string]any{"numeral": arg, "value": value})
					fmt.Fprintln(app.IO.Out, string(encoded))
				} else {
					fmt.Fprintf(app.IO.Out, "%s = %d\n", arg, value)
				}
			}
			return nil
		},
	}
}
