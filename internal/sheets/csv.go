package sheets

import (
	"strconv"
	"strings"
)

// Record is one spreadsheet row keyed by header name. Values are strings
// except for configured numeric columns, which are float64.
type Record map[string]any

// ParseCSV turns a published-sheet CSV export into records. The first line
// is the header row; RFC4180 double-quote escaping is honoured ("" inside a
// quoted field is a literal quote); blank lines and all-blank rows are
// skipped; columns with an empty header name are dropped. Numeric columns
// have thousands separators stripped and parse to 0 on failure.
func ParseCSV(csv string, numericFields []string) []Record {
	numeric := make(map[string]bool, len(numericFields))
	for _, f := range numericFields {
		numeric[f] = true
	}

	lines := splitLines(csv)
	if len(lines) == 0 {
		return []Record{}
	}

	headers := parseLine(lines[0])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := parseLine(line)
		if allBlank(cells) {
			continue
		}

		record := Record{}
		for idx, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if idx < len(cells) {
				value = strings.TrimSpace(cells[idx])
			}
			if numeric[header] {
				n, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
				if err != nil {
					n = 0
				}
				record[header] = n
			} else {
				record[header] = value
			}
		}
		records = append(records, record)
	}
	return records
}

// parseLine splits one CSV line on commas outside quotes
func parseLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"' && i+1 < len(line) && line[i+1] == '"':
			current.WriteByte('"')
			i++
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	result = append(result, current.String())
	return result
}

func splitLines(csv string) []string {
	raw := strings.Split(strings.ReplaceAll(strings.TrimSpace(csv), "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
