package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

type printer func(w io.Writer, data interface{}) error

// printers maps --output values to renderers; anything else renders as a table.
var printers = map[string]printer{
	"json":  writeJSON,
	"yaml":  writeYAML,
	"text":  writeText,
	"table": writeTable,
}

// PrintResult renders data on stdout in the --output format.  Without a
// CLIContext (a command run outside the root) it prints JSON.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = strings.ToLower(cliCtx.OutputFormat)
	}
	p, ok := printers[format]
	if !ok {
		p = writeTable
	}
	return p(cmd.OutOrStdout(), data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, data interface{}) error {
	var err error
	switch v := data.(type) {
	case string:
		_, err = fmt.Fprintln(w, v)
	case fmt.Stringer:
		_, err = fmt.Fprintln(w, v.String())
	case tableProvider:
		return writeTable(w, v)
	default:
		_, err = fmt.Fprintf(w, "%+v\n", v)
	}
	return err
}

func writeTable(w io.Writer, data interface{}) error {
	tp, ok := data.(tableProvider)
	if !ok {
		return writeText(w, data)
	}
	_, err := io.WriteString(w, FormatTable(tp.TableHeaders(), tp.TableRows()))
	return err
}

// FormatTable renders headers and rows as left-aligned columns separated by
// two spaces, with a dashed rule under the headers.  Short rows are padded;
// cells beyond the header count are dropped.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	rule := make([]string, len(headers))
	all := append([][]string{headers, rule}, rows...)
	for _, row := range all {
		for i := range widths {
			if i < len(row) && len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	var sb strings.Builder
	for _, row := range all {
		for i, n := range widths {
			if i > 0 {
				sb.WriteString("  ")
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(&sb, "%-*s", n, cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
