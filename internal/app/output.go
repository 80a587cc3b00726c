package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

func writeJSON(out, errOut io.Writer, value any) int {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "json error: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, string(encoded))
	return 0
}

func writeYAML(out, errOut io.Writer, value any) int {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(errOut, "yaml error: %v\n", err)
		return 1
	}
	if err := encoder.Close(); err != nil {
		fmt.Fprintf(errOut, "yaml error: %v\n", err)
		return 1
	}
	return 0
}

// parseFormat validates a --format value against the allowed set.
func parseFormat(raw string, allowed ...string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s (want %s)", raw, strings.Join(allowed, "|"))
}

// writeStructured handles the json and yaml formats. It reports false when
// the caller should render its own text form.
func writeStructured(out, errOut io.Writer, format string, value any) (int, bool) {
	switch format {
	case "json":
		return writeJSON(out, errOut, value), true
	case "yaml":
		return writeYAML(out, errOut, value), true
	default:
		return 0, false
	}
}

func relativeTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.Time(ts)
}

func writeTable(out io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, col := range row {
			if i < len(widths) && len(col) > widths[i] {
				widths[i] = len(col)
			}
		}
	}

	border := asciiBorder(widths)
	fmt.Fprintln(out, border)
	writeASCIIRow(out, widths, headers)
	fmt.Fprintln(out, border)
	for _, row := range rows {
		writeASCIIRow(out, widths, row)
	}
	fmt.Fprintln(out, border)
}

func asciiBorder(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	return b.String()
}

func writeASCIIRow(out io.Writer, widths []int, cols []string) {
	fmt.Fprint(out, "|")
	for i, width := range widths {
		value := ""
		if i < len(cols) {
			value = cols[i]
		}
		fmt.Fprintf(out, " %-*s |", width, value)
	}
	fmt.Fprintln(out)
}

func truncateMiddle(value string, max int) string {
	text := strings.TrimSpace(value)
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	left := (max - 3) / 3
	if left < 1 {
		left = 1
	}
	right := max - 3 - left
	if right < 1 {
		right = 1
	}
	if left+right+3 > len(text) {
		return text
	}
	return text[:left] + "..." + text[len(text)-right:]
}

func terminalColumns() int {
	raw := strings.TrimSpace(os.Getenv("COLUMNS"))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
