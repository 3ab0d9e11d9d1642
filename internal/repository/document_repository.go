package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gopherai-training/internal/model"
)

const chunkBatchSize = 200

// DocumentRepository mirrors the in-process document store to MySQL.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Save upserts a document together with its chunks in one transaction.
func (r *DocumentRepository) Save(ctx context.Context, doc model.Document, chunks []model.Chunk) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error; err != nil {
			return fmt.Errorf("save document failed: %w", err)
		}
		if err := tx.Where("document_id = ?", doc.ID).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("clear document chunks failed: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(chunks, chunkBatchSize).Error; err != nil {
			return fmt.Errorf("save document chunks failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// Delete removes a document and its chunks. Unknown ids are not an error.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("delete document chunks failed: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return fmt.Errorf("delete document failed: %w", err)
		}
		return nil
	})
}

type StoredDocument struct {
	Document model.Document
	Chunks   []model.Chunk
}

// LoadAll returns every persisted document with its chunks in order, oldest first.
func (r *DocumentRepository) LoadAll(ctx context.Context) ([]StoredDocument, error) {
	var docs []model.Document
	if err := r.db.WithContext(ctx).Order("processed_at ASC, id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).Order("document_id ASC, chunk_order ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	byDoc := make(map[string][]model.Chunk, len(docs))
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	out := make([]StoredDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, StoredDocument{Document: d, Chunks: byDoc[d.ID]})
	}
	return out, nil
}

// Apply writes one store event.
func (r *DocumentRepository) Apply(ctx context.Context, event model.StoreEvent) error {
	return applyEvent(ctx, r, event)
}

type documentWriter interface {
	Save(ctx context.Context, doc model.Document, chunks []model.Chunk) error
	Delete(ctx context.Context, id string) error
}

func applyEvent(ctx context.Context, w documentWriter, event model.StoreEvent) error {
	switch event.Type {
	case model.EventDocumentIngested:
		if event.Document == nil {
			return fmt.Errorf("event %s for %s has no document", event.Type, event.DocumentID)
		}
		return w.Save(ctx, *event.Document, event.Chunks)
	case model.EventDocumentRemoved:
		return w.Delete(ctx, event.DocumentID)
	default:
		return fmt.Errorf("unknown store event type %q", event.Type)
	}
}
