package corpus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gopherai-training/internal/app"
)

// SeedDocument is one manifest entry. Content is inline text; File is a path relative
// to the manifest and wins when both are set.
type SeedDocument struct {
	Name          string   `yaml:"name"`
	Category      string   `yaml:"category"`
	WeaponSystems []string `yaml:"weapon_systems"`
	CourseTypes   []string `yaml:"course_types"`
	Topics        []string `yaml:"topics"`
	Content       string   `yaml:"content"`
	File          string   `yaml:"file"`
}

type Manifest struct {
	Documents []SeedDocument `yaml:"documents"`

	dir string
}

// LoadManifest reads a seed manifest. A missing file yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("read seed manifest failed: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse seed manifest failed: %w", err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

type SeedReport struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Seed ingests every manifest document whose name and content are not already live, so
// repeated startups against a restored store do not duplicate anything.
func Seed(ctx context.Context, ingester Ingester, m *Manifest) SeedReport {
	var report SeedReport
	for i, d := range m.Documents {
		input, err := m.input(d)
		if err != nil {
			log.Printf("seed document %d failed: %v", i, err)
			report.Failed++
			continue
		}
		if ingester.HasDocument(input.Name, input.Content) {
			report.Skipped++
			continue
		}
		if _, err := ingester.ReplaceByName(ctx, input); err != nil {
			log.Printf("seed document %q failed: %v", input.Name, err)
			report.Failed++
			continue
		}
		report.Ingested++
	}
	return report
}

func (m *Manifest) input(d SeedDocument) (app.IngestInput, error) {
	content, pages := d.Content, 0
	if d.File != "" {
		path := d.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, path)
		}
		text, n, err := readDocument(path)
		if err != nil {
			return app.IngestInput{}, err
		}
		content, pages = text, n
	}
	name := strings.TrimSpace(d.Name)
	if name == "" && d.File != "" {
		name = filepath.Base(d.File)
	}
	return app.IngestInput{
		Name:          name,
		Content:       content,
		Category:      d.Category,
		WeaponSystems: d.WeaponSystems,
		CourseTypes:   d.CourseTypes,
		Topics:        d.Topics,
		PageCount:     pages,
	}, nil
}
