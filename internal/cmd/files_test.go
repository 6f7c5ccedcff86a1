package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileRef(t *testing.T) {
	for _, tc := range []struct {
		ref  string
		want string
	}{
		{"F0ABC123DEF", "F0ABC123DEF"},
		{"  F0ABC123DEF  ", "F0ABC123DEF"},
		{"https://files.slack.com/files-pri/T0XXXXXX-F0ABC123DEF/report.pdf", "F0ABC123DEF"},
		{"https://acme-corp.slack.com/files/U0YYYYYY/F0ABC123DEF/report.pdf", "F0ABC123DEF"},
	} {
		got, err := parseFileRef(tc.ref)
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got, tc.ref)
	}

	for _, ref := range []string{
		"",
		"report.pdf",
		"U0ABC123",
		"https://example.com/files/U0YY/F0ABC/report.pdf",
		"https://acme.slack.com/archives/C0GENERAL/p1700000000000100",
	} {
		_, err := parseFileRef(ref)
		assert.Error(t, err, ref)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("report.pdf"))
	assert.Equal(t, "report.pdf", sanitizeFilename("/etc/passwd/../report.pdf"))
	assert.Equal(t, "_.pdf", sanitizeFilename("...pdf"))
	assert.Equal(t, "downloaded_file", sanitizeFilename(""))
	assert.Equal(t, "downloaded_file", sanitizeFilename(".."))
	assert.Equal(t, "downloaded_file", sanitizeFilename("."))
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.0 KB", formatSize(1024))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2<<20))
	assert.Equal(t, "1.0 GB", formatSize(1<<30))
}

func TestDownloadDest(t *testing.T) {
	assert.Equal(t, filepath.Join(defaultDownloadDir(), "a.txt"), downloadDest("", "a.txt"))

	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "a.txt"), downloadDest(dir, "a.txt"))

	exact := filepath.Join(dir, "renamed.txt")
	assert.Equal(t, exact, downloadDest(exact, "a.txt"))
}
