package pdfextract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Empty(t *testing.T) {
	res, err := Extract(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Pages)
}

func TestExtract_NotAPDF(t *testing.T) {
	_, err := Extract(bytes.NewReader([]byte("plain text, not a pdf")))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	in := "  MISFIRE PROCEDURES  \r\n\r\n\r\nWait two minutes.\n   \nReport it.\n\n"
	assert.Equal(t, "MISFIRE PROCEDURES\n\nWait two minutes.\n\nReport it.", normalize(in))
}
