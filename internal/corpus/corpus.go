package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopherai-training/internal/app"
	"gopherai-training/internal/pkg/pdfextract"
	"gopherai-training/internal/store"
)

// Ingester is the part of the knowledge service the corpus loaders use.
type Ingester interface {
	ReplaceByName(ctx context.Context, input app.IngestInput) (*store.IngestResult, error)
	RemoveByName(ctx context.Context, name string) int
	HasDocument(name, content string) bool
}

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return textExtensions[ext] || ext == ".pdf"
}

// ReadDocument returns the text of a .txt, .md or .pdf file and its page count when known.
func ReadDocument(path string) (string, int, error) {
	if !supported(path) {
		return "", 0, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	return readDocument(path)
}

// readDocument returns the text of a supported file and its page count when known.
func readDocument(path string) (string, int, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", 0, fmt.Errorf("read %s failed: %w", path, err)
		}
		return string(data), 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s failed: %w", path, err)
	}
	defer f.Close()
	res, err := pdfextract.Extract(f)
	if err != nil {
		return "", 0, fmt.Errorf("extract %s failed: %w", path, err)
	}
	return res.Text, res.Pages, nil
}
