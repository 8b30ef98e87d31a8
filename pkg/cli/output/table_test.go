package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderToString(t *Table) string {
	var buf bytes.Buffer
	t.SetOutput(&buf)
	t.Render()
	return buf.String()
}

func TestTable_Render(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	table := NewTable([]string{"ID", "状态"})
	table.AddRow("fetch-list", "COMPLETED")
	table.AddRow("x", "FAILED")

	lines := strings.Split(strings.TrimRight(renderToString(table), "\n"), "\n")
	require.Len(t, lines, 4)

	// 列宽取表头与单元格的最大值，ID列按"fetch-list"补齐
	assert.True(t, strings.HasPrefix(lines[0], "ID        "), "表头应左对齐补空格: %q", lines[0])
	assert.Contains(t, lines[0], "状态")
	assert.Contains(t, lines[1], "----------")
	assert.Equal(t, "fetch-list  COMPLETED", strings.TrimRight(lines[2], " "))
	assert.True(t, strings.HasPrefix(lines[3], "x  "), "短单元格应左对齐补空格: %q", lines[3])
}

func TestTable_AddRowTruncatesExtraCells(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	table := NewTable([]string{"ID"})
	table.AddRow("a", "多余的列")

	out := renderToString(table)
	assert.NotContains(t, out, "多余的列")
	assert.Contains(t, out, "a")
}
