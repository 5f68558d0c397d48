package bench

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleResults = []Result{
	{Scenario: "pk_hit", Ops: 10000, ThroughputOps: 8123.456, AvgMs: 0.5, P50Ms: 0.4567, P95Ms: 1.2, P99Ms: 2.0},
	{Scenario: "order_page", Ops: 10000, ThroughputOps: 900, AvgMs: 11, P50Ms: 10, P95Ms: 15, P99Ms: 21.5},
}

func TestJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResults[:1]))

	for _, field := range []string{`"scenario"`, `"ops"`, `"throughput_ops"`, `"avg_ms"`, `"p50_ms"`, `"p95_ms"`, `"p99_ms"`} {
		assert.Contains(t, buf.String(), field)
	}

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleResults[:1], got)
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, sampleResults))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| scenario | ops | throughput_ops | p50_ms | p95_ms | p99_ms |", lines[0])
	assert.Equal(t, "| --- | --- | --- | --- | --- | --- |", lines[1])
	assert.Equal(t, "| pk_hit | 10000 | 8123.46 | 0.457 | 1.200 | 2.000 |", lines[2])
}

func writeReport(t *testing.T, path string, results []Result) {
	t.Helper()
	require.NoError(t, WriteFile(path, func(w io.Writer) error { return WriteJSON(w, results) }))
}

func TestSummaryAcrossScales(t *testing.T) {
	root := t.TempDir()
	writeReport(t, filepath.Join(root, "mysql", "10000000", "bench.json"), sampleResults)
	writeReport(t, filepath.Join(root, "mysql", "1000000", "bench.json"), sampleResults[:1])
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mysql", "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mysql", "broken"), []byte("x"), 0o644))

	data, err := CollectScales(root, "mysql", nil)
	require.NoError(t, err)
	assert.Len(t, data, 2)

	var buf bytes.Buffer
	require.NoError(t, SummaryMarkdown(&buf, data))
	out := buf.String()

	// scenarios sorted by name, scales sorted numerically
	assert.Less(t, strings.Index(out, "## order_page"), strings.Index(out, "## pk_hit"))
	pk := out[strings.Index(out, "## pk_hit"):]
	assert.Less(t, strings.Index(pk, "| 1000000 |"), strings.Index(pk, "| 10000000 |"))
	assert.Contains(t, out, "| 1000000 |  | 0.00 | 0.000 | 0.000 | 0.000 |")
}

func TestCollectScalesWarnsOnBadReport(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pg", "500", "bench.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var warned []string
	data, err := CollectScales(root, "pg", func(p string, _ error) { warned = append(warned, p) })
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, []string{path}, warned)
}
