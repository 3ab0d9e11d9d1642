package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/model"
)

type writeCall struct {
	op     string
	id     string
	chunks int
}

type recordingWriter struct {
	err   error
	calls []writeCall
}

func (w *recordingWriter) Save(_ context.Context, doc model.Document, chunks []model.Chunk) error {
	w.calls = append(w.calls, writeCall{op: "save", id: doc.ID, chunks: len(chunks)})
	return w.err
}

func (w *recordingWriter) Delete(_ context.Context, id string) error {
	w.calls = append(w.calls, writeCall{op: "delete", id: id})
	return w.err
}

var _ documentWriter = (*DocumentRepository)(nil)

func TestApplyEvent_Dispatch(t *testing.T) {
	doc := model.Document{ID: "doc-1", Name: "FT-155-SOP"}
	chunks := []model.Chunk{{ID: "doc-1-c0000", DocumentID: "doc-1"}, {ID: "doc-1-c0001", DocumentID: "doc-1"}}

	t.Run("ingested saves document with chunks", func(t *testing.T) {
		w := &recordingWriter{}
		err := applyEvent(context.Background(), w, model.StoreEvent{
			Type: model.EventDocumentIngested, DocumentID: "doc-1", Document: &doc, Chunks: chunks,
		})
		require.NoError(t, err)
		assert.Equal(t, []writeCall{{op: "save", id: "doc-1", chunks: 2}}, w.calls)
	})

	t.Run("removed deletes by id", func(t *testing.T) {
		w := &recordingWriter{}
		err := applyEvent(context.Background(), w, model.StoreEvent{Type: model.EventDocumentRemoved, DocumentID: "doc-1"})
		require.NoError(t, err)
		assert.Equal(t, []writeCall{{op: "delete", id: "doc-1"}}, w.calls)
	})

	t.Run("ingested without document is rejected", func(t *testing.T) {
		w := &recordingWriter{}
		err := applyEvent(context.Background(), w, model.StoreEvent{Type: model.EventDocumentIngested, DocumentID: "doc-1"})
		assert.ErrorContains(t, err, "has no document")
		assert.Empty(t, w.calls)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		w := &recordingWriter{}
		err := applyEvent(context.Background(), w, model.StoreEvent{Type: "document.renamed", DocumentID: "doc-1"})
		assert.ErrorContains(t, err, "unknown store event type")
		assert.Empty(t, w.calls)
	})

	t.Run("writer errors propagate", func(t *testing.T) {
		boom := errors.New("deadlock")
		w := &recordingWriter{err: boom}
		err := applyEvent(context.Background(), w, model.StoreEvent{Type: model.EventDocumentRemoved, DocumentID: "doc-1"})
		assert.ErrorIs(t, err, boom)
	})
}
