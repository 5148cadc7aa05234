package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/phpattr/attrs/parsing"
	"github.com/satishbabariya/phpattr/attrs/reader"
)

func TestAnnotationRowsAndTable(t *testing.T) {
	file, err := parsing.New().ParseString("/app/Kernel.php", "<?php\nclass Kernel {\n    #[Listen('boot', priority: 10)]\n    public function onBoot() {}\n}\n")
	require.NoError(t, err)

	var all []*reader.Annotation
	for a, err := range reader.New(file).Annotations() {
		require.NoError(t, err)
		all = append(all, a)
	}

	rows := AnnotationRows(all)
	assert.Equal(t, [][]string{{"Listen", "method Kernel::onBoot()", "/app/Kernel.php:3", "'boot', priority: 10"}}, rows)

	table, err := Table([]string{"Attribute", "Target", "Location", "Arguments"}, rows)
	require.NoError(t, err)
	assert.Contains(t, table, "Kernel::onBoot()")
	assert.Contains(t, table, "Attribute")
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "%d files", 3)
	Error(&buf, "broken %s", "a.php")
	Warning(&buf, "slow")
	Info(&buf, "done")

	out := buf.String()
	assert.Contains(t, out, "3 files")
	assert.Contains(t, out, "broken a.php")
	assert.Contains(t, out, "slow")
	assert.Contains(t, out, "done")
}

func TestMarkdown(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	out, err := Markdown("# Title\n\nSome `code` here.\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "code")
}
