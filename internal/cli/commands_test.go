package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/javamodel/internal/indexer"
	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
	"github.com/mvp-joe/javamodel/internal/indexer/externals"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
	"github.com/mvp-joe/javamodel/internal/storage"
)

// Test Plan for commands:
// - parse prints the unit JSON with classes, attributes and methods
// - parse prints a single {"error"} record and returns errReported for a broken file
// - externals prints the usage map keyed by model name
// - members lists qualified members with chunks
// - models prints a table and JSON from the store
// - formatNumber adds thousands separators
// - quiet progress writes nothing

const (
	orderService = "../../testdata/java/OrderService.java"
	brokenSource = "../../testdata/java/Broken.java"
)

func parseFixtureUnit(ctx context.Context) (*extraction.SourceUnit, error) {
	return parsers.NewJavaParser().ParseFile(ctx, orderService)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, parseCommand(context.Background(), &out, orderService))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.NotContains(t, doc, "error")

	classes := doc["classes"].([]any)
	require.Len(t, classes, 1)
	cls := classes[0].(map[string]any)
	assert.Equal(t, "OrderService", cls["class_name"])
	assert.Len(t, cls["attributes"], 5)
	assert.Len(t, cls["inner_classes"], 2)
}

func TestParseCommand_Error(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := parseCommand(context.Background(), &out, brokenSource)
	assert.ErrorIs(t, err, errReported)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc, 1)
	msg := doc["error"]
	assert.True(t, strings.HasPrefix(msg, "grammar: ") || strings.HasPrefix(msg, "lexical: "), msg)
}

func TestExternalsCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, externalsCommand(context.Background(), &out, orderService, externals.DefaultOptions()))

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc, "Order")
	assert.Contains(t, doc, "Customer")
	assert.NotContains(t, doc, "List")
	assert.NotContains(t, doc, "OrderService")
	assert.Equal(t, "OrderService.getOrders", doc["Order"][1]["location"])
}

func TestMembersCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, membersCommand(context.Background(), &out, orderService, indexer.NewCodeChunker(2000, 500)))

	var doc struct {
		Classes []struct {
			Index         int    `json:"class_index"`
			QualifiedName string `json:"qualified_name"`
		} `json:"classes"`
		Methods []struct {
			QualifiedName string `json:"qualified_name"`
			RawCode       string `json:"raw_code"`
			Chunks        []struct {
				Text string `json:"text"`
			} `json:"chunks"`
		} `json:"methods"`
		Fields []json.RawMessage `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	require.Len(t, doc.Classes, 3)
	assert.Equal(t, "OrderService.Listener", doc.Classes[2].QualifiedName)
	require.Len(t, doc.Methods, 5)
	assert.Equal(t, "OrderService.getOrders", doc.Methods[1].QualifiedName)
	require.Len(t, doc.Methods[1].Chunks, 1)
	assert.Equal(t, doc.Methods[1].RawCode, doc.Methods[1].Chunks[0].Text)
	assert.Len(t, doc.Fields, 6)
}

func TestModelsCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewTestStore(t)

	unit, err := parseFixtureUnit(ctx)
	require.NoError(t, err)
	usages := externals.NewAnalyzer(externals.DefaultOptions()).Analyze(unit)
	require.NoError(t, store.WriteUnit(ctx, "OrderService.java", "h", unit, usages))

	var table bytes.Buffer
	require.NoError(t, modelsCommand(ctx, &table, store.Reader, "", false))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, len(usages)+1)
	assert.True(t, strings.HasPrefix(lines[0], "MODEL"))
	assert.True(t, strings.HasPrefix(lines[1], "Order "))

	var js bytes.Buffer
	require.NoError(t, modelsCommand(ctx, &js, store.Reader, "Order", true))
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &stored))
	require.Len(t, stored, len(usages["Order"]))
	assert.Equal(t, "OrderService.java", stored[0]["file_path"])
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.n))
	}
}

func TestCLIProgressReporter_Quiet(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewCLIProgressReporter(&out, true)
	p.OnDiscoveryStart()
	p.OnDiscoveryComplete(3)
	p.OnFileProcessingStart(3)
	p.OnFileProcessed("A.java")
	p.OnComplete(&indexer.Stats{})
	assert.Empty(t, out.String())

	loud := NewCLIProgressReporter(&out, false)
	loud.OnDiscoveryComplete(1200)
	assert.Contains(t, out.String(), "Found 1,200 Java files")
}
