package tabular

import (
	"strings"
	"text/tabwriter"
)

// RenderTable lays rows out as aligned text columns. The first row is
// treated as the header and underlined.
func RenderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	writeLine := func(cells []string) {
		w.Write([]byte(strings.Join(cells, "\t") + "\n")) //nolint:errcheck
	}

	writeLine(rows[0])
	rule := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		rule[i] = strings.Repeat("-", max(len(h), 1))
	}
	writeLine(rule)
	for _, r := range rows[1:] {
		writeLine(r)
	}

	w.Flush() //nolint:errcheck
	return sb.String()
}
