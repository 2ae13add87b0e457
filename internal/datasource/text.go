package datasource

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/lightpath/internal/simerr"
	"gopkg.in/yaml.v3"
)

// TabularSource holds a fully parsed table.
type TabularSource struct {
	table   *Table
	meta    map[string]any
	headers []map[string]any
}

// Table returns the parsed table.
func (s *TabularSource) Table() *Table { return s.table }

// Meta implements Source.
func (s *TabularSource) Meta() map[string]any { return s.meta }

// Headers implements Source.
func (s *TabularSource) Headers() []map[string]any { return s.headers }

// Data implements Source.
func (s *TabularSource) Data() (Payload, error) { return s.table, nil }

// Close implements Source; a tabular source holds no handle.
func (s *TabularSource) Close() error { return nil }

func openText(path string, meta map[string]any) (*TabularSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, comments, err := parseText(f)
	if err != nil {
		return nil, simerr.Wrap(simerr.ErrFormat, err, "datasource.Open", path)
	}

	m := baseMeta(path, meta)
	var header map[string]any
	if len(comments) > 0 {
		m["comments"] = comments
		header = commentsToMap(comments)
	}
	maps.Copy(m, header)
	appendHistory(m, fmt.Sprintf("ASCII table read from %s", path))
	maps.Copy(table.Meta, m)
	for _, key := range []string{"history", "comments"} {
		if list, ok := table.Meta[key].([]any); ok {
			table.Meta[key] = slices.Clone(list)
		}
	}

	return &TabularSource{table: table, meta: m, headers: []map[string]any{header}}, nil
}

// parseText reads a basic whitespace-delimited table. Lines starting with
// '#' are comments; the first other line names the columns. Cells that parse
// as numbers become float64, the rest stay strings.
func parseText(r io.Reader) (*Table, []any, error) {
	var (
		comments []any
		cols     []Column
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			c := strings.TrimPrefix(trimmed, "#")
			comments = append(comments, strings.TrimPrefix(c, " "))
			continue
		}

		fields := strings.Fields(trimmed)
		if cols == nil {
			cols = make([]Column, len(fields))
			for i, name := range fields {
				cols[i] = Column{Name: name}
			}
			continue
		}
		if len(fields) != len(cols) {
			return nil, nil, fmt.Errorf("line %d has %d fields, header has %d columns", lineNo, len(fields), len(cols))
		}
		for i, cell := range fields {
			cols[i].Values = append(cols[i].Values, parseCell(cell))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if cols == nil {
		return nil, nil, fmt.Errorf("no column header line found")
	}

	table, err := NewTable(cols...)
	if err != nil {
		return nil, nil, err
	}
	return table, comments, nil
}

func parseCell(cell string) any {
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

// commentsToMap reads the comment block as YAML. Comment blocks that are not
// a mapping (free text, changelogs) yield nil.
func commentsToMap(comments []any) map[string]any {
	lines := make([]string, len(comments))
	for i, c := range comments {
		lines[i] = c.(string)
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &out); err != nil {
		return nil
	}
	return out
}
