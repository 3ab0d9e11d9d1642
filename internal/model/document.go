package model

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryDoctrine        Category = "doctrine"
	CategorySOP             Category = "sop"
	CategoryTechnicalManual Category = "technical-manual"
	CategoryFiringTable     Category = "firing-table"
	CategoryCourseNotes     Category = "course-notes"
	CategoryReference       Category = "reference"
)

var categories = []Category{
	CategoryDoctrine,
	CategorySOP,
	CategoryTechnicalManual,
	CategoryFiringTable,
	CategoryCourseNotes,
	CategoryReference,
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes raw input; empty input maps to CategoryReference.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return CategoryReference, true
	}
	c := Category(raw)
	return c, c.Valid()
}

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Metadata is copied onto every chunk at creation time.
type Metadata struct {
	Category      Category `json:"category"`
	WeaponSystems []string `json:"weaponSystems"`
	CourseTypes   []string `json:"courseTypes"`
	Topics        []string `json:"topics"`
}

// Clone returns a deep copy so chunks never share slices with their document.
func (m Metadata) Clone() Metadata {
	return Metadata{
		Category:      m.Category,
		WeaponSystems: append([]string{}, m.WeaponSystems...),
		CourseTypes:   append([]string{}, m.CourseTypes...),
		Topics:        append([]string{}, m.Topics...),
	}
}

func (m Metadata) Tags() []string {
	seen := make(map[string]struct{}, len(m.WeaponSystems)+len(m.Topics))
	var tags []string
	for _, group := range [][]string{m.WeaponSystems, m.Topics} {
		for _, tag := range group {
			norm := strings.ToLower(strings.TrimSpace(tag))
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			tags = append(tags, norm)
		}
	}
	return tags
}

// NormalizeSet trims entries, drops blanks and removes case-insensitive duplicates,
// keeping the first spelling seen.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

type Document struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Name        string         `gorm:"size:256;not null;index" json:"name"`
	Metadata    Metadata       `gorm:"serializer:json;type:text" json:"metadata"`
	PageCount   int            `json:"pageCount"`
	Checksum    string         `gorm:"size:64" json:"checksum"`
	Status      DocumentStatus `gorm:"size:16;not null" json:"status"`
	ChunkIDs    []string       `gorm:"serializer:json;type:text" json:"chunkIds"`
	ProcessedAt time.Time      `json:"processedAt"`
}

func (d Document) Clone() Document {
	d.Metadata = d.Metadata.Clone()
	d.ChunkIDs = append([]string{}, d.ChunkIDs...)
	return d
}

func (Document) TableName() string {
	return "knowledge_documents"
}
