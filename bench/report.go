package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// WriteJSON encodes results as an indented JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// ReadJSON decodes a report written by WriteJSON.
func ReadJSON(r io.Reader) ([]Result, error) {
	var results []Result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return results, nil
}

// ReadJSONFile reads a report from path.
func ReadJSONFile(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var markdownHeader = []string{"scenario", "ops", "throughput_ops", "p50_ms", "p95_ms", "p99_ms"}

// Markdown renders results as a Markdown table.
func Markdown(w io.Writer, results []Result) error {
	var b strings.Builder
	writeHeader(&b, markdownHeader)
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.3f | %.3f | %.3f |\n",
			r.Scenario, r.Ops, r.ThroughputOps, r.P50Ms, r.P95Ms, r.P99Ms)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, cols []string) {
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	sep := make([]string, len(cols))
	for i := range sep {
		sep[i] = " --- "
	}
	b.WriteString("|" + strings.Join(sep, "|") + "|\n")
}

// ScaleResults holds one bench.json per scale.
type ScaleResults map[uint64]map[string]Result

// CollectScales reads <root>/<db>/<scale>/bench.json for every numeric scale
// directory. Unreadable reports are passed to warn and skipped.
func CollectScales(root, db string, warn func(path string, err error)) (ScaleResults, error) {
	base := filepath.Join(root, db)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	data := make(ScaleResults)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		scale, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		path := filepath.Join(base, e.Name(), "bench.json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		results, err := ReadJSONFile(path)
		if err != nil {
			if warn != nil {
				warn(path, err)
			}
			continue
		}
		rows := make(map[string]Result, len(results))
		for _, r := range results {
			rows[r.Scenario] = r
		}
		data[scale] = rows
	}
	return data, nil
}

// SummaryMarkdown renders one table per scenario with a row per scale, scales
// ascending. A scale missing a scenario gets an empty ops cell and zeros.
func SummaryMarkdown(w io.Writer, data ScaleResults) error {
	scales := make([]uint64, 0, len(data))
	seen := make(map[string]bool)
	for scale, rows := range data {
		scales = append(scales, scale)
		for name := range rows {
			seen[name] = true
		}
	}
	sort.Slice(scales, func(i, j int) bool { return scales[i] < scales[j] })
	scenarios := make([]string, 0, len(seen))
	for name := range seen {
		scenarios = append(scenarios, name)
	}
	sort.Strings(scenarios)

	var b strings.Builder
	for _, name := range scenarios {
		fmt.Fprintf(&b, "## %s\n", name)
		writeHeader(&b, []string{"scale", "ops", "throughput_ops", "p50_ms", "p95_ms", "p99_ms"})
		for _, scale := range scales {
			r, ok := data[scale][name]
			ops := ""
			if ok {
				ops = strconv.FormatUint(r.Ops, 10)
			}
			fmt.Fprintf(&b, "| %d | %s | %.2f | %.3f | %.3f | %.3f |\n",
				scale, ops, r.ThroughputOps, r.P50Ms, r.P95Ms, r.P99Ms)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
