package main

import (
	"bytes"
	"testing"

	itesting "github.com/bgrewell/cdr-kit/internal/testing"
	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisMethod(t *testing.T) {
	m, err := analysisMethod("search")
	require.NoError(t, err)
	assert.Equal(t, options.ANALYSIS_SEARCH, m)

	m, err = analysisMethod("")
	require.NoError(t, err)
	assert.Equal(t, options.ANALYSIS_DEFAULT, m)

	_, err = analysisMethod("guess")
	assert.Error(t, err)
}

func TestDataFileName(t *testing.T) {
	assert.Equal(t, "disc.bin", dataFileName("disc.toc"))
	assert.Equal(t, "/tmp/a.b.bin", dataFileName("/tmp/a.b.toc"))
	assert.Equal(t, "disc.bin", dataFileName("disc"))
}

func TestDriversCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"drivers", "--write"})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "generic-mmc, plextor")
	assert.Contains(t, out, "PX-W4012A")
	assert.Contains(t, out, "write entries")
}

func TestPrintCdText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	packs := itesting.CdTextPacks("Album", "Artist", "One", "Two")
	require.NoError(t, printCdText(cmd, cdtext.Decode(packs)))

	out := buf.String()
	assert.Contains(t, out, `TITLE "Album"`)
	assert.Contains(t, out, "// Track 2")
	assert.Contains(t, out, `TITLE "Two"`)
}
