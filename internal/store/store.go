package store

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"gopherai-training/internal/chunker"
	"gopherai-training/internal/errs"
	"gopherai-training/internal/model"
	"gopherai-training/internal/retrieval"
)

// charsPerPage estimates pages for plain-text ingests that carry no page count.
const charsPerPage = 3000

type Store struct {
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]

	chunker *chunker.Chunker
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

func WithMaxChunkChars(n int) Option {
	return func(s *Store) {
		s.chunker = chunker.New(n)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		chunker: chunker.New(chunker.DefaultMaxChunkChars),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptySnapshot())
	return s
}

func (s *Store) MaxChunkChars() int {
	return s.chunker.MaxChars()
}

type IngestRequest struct {
	Name      string
	Content   string
	Metadata  model.Metadata
	PageCount int
}

type IngestResult struct {
	DocumentID string         `json:"documentId"`
	ChunkCount int            `json:"chunkCount"`
	Document   model.Document `json:"document"`
	Chunks     []model.Chunk  `json:"-"`
}

// Ingest publishes the document and all of its chunks in a single snapshot swap.
func (s *Store) Ingest(req IngestRequest) (*IngestResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errs.Ingestion("document content is empty", chunker.ErrEmptyContent)
	}
	sections, err := s.chunker.Chunk(content)
	if err != nil {
		return nil, errs.Ingestion("chunk document failed", err)
	}

	meta := req.Metadata.Clone()
	if meta.Category == "" {
		meta.Category = model.CategoryReference
	}
	pages := req.PageCount
	if pages <= 0 {
		pages = (utf8.RuneCountInString(content) + charsPerPage - 1) / charsPerPage
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc := model.Document{
		ID:          s.newID(),
		Name:        strings.TrimSpace(req.Name),
		Metadata:    meta,
		PageCount:   pages,
		Checksum:    Checksum(content),
		Status:      model.StatusProcessing,
		ProcessedAt: s.now().UTC(),
	}
	cur := s.current.Load()
	if _, exists := cur.docs[doc.ID]; exists {
		return nil, errs.Ingestion("allocate document id failed", fmt.Errorf("duplicate id %q", doc.ID))
	}

	chunks := make([]model.Chunk, len(sections))
	doc.ChunkIDs = make([]string, len(sections))
	for i, sec := range sections {
		c := model.Chunk{
			ID:           chunkID(doc.ID, i),
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Content:      sec.Content,
			Order:        i,
			Metadata:     meta.Clone(),
		}
		if sec.Title != "" {
			title := sec.Title
			c.SectionTitle = &title
		}
		chunks[i] = c
		doc.ChunkIDs[i] = c.ID
	}
	doc.Status = model.StatusReady

	next := cur.clone()
	next.addDocument(doc, chunks)
	s.current.Store(next)

	out := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.Clone()
	}
	return &IngestResult{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		Document:   doc.Clone(),
		Chunks:     out,
	}, nil
}

// Restore inserts a previously persisted document with its original ids, replacing any
// live document with the same id.
func (s *Store) Restore(doc model.Document, chunks []model.Chunk) error {
	if doc.ID == "" {
		return errs.Ingestion("restore document failed", fmt.Errorf("document id is empty"))
	}
	if len(chunks) == 0 {
		return errs.Ingestion("restore document failed", fmt.Errorf("document %s has no chunks", doc.ID))
	}
	ordered := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		ordered[i] = c.Clone()
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	doc = doc.Clone()
	doc.ChunkIDs = make([]string, len(ordered))
	for i, c := range ordered {
		if c.DocumentID != doc.ID {
			return errs.Ingestion("restore document failed",
				fmt.Errorf("chunk %s belongs to %s, not %s", c.ID, c.DocumentID, doc.ID))
		}
		if strings.TrimSpace(c.Content) == "" {
			return errs.Ingestion("restore document failed", fmt.Errorf("chunk %s is empty", c.ID))
		}
		doc.ChunkIDs[i] = c.ID
	}
	doc.Status = model.StatusReady

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.current.Load().clone()
	next.removeDocument(doc.ID)
	next.addDocument(doc, ordered)
	s.current.Store(next)
	return nil
}

// Remove reports false for unknown ids.
func (s *Store) Remove(id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if _, ok := cur.docs[id]; !ok {
		return false
	}
	next := cur.clone()
	next.removeDocument(id)
	s.current.Store(next)
	return true
}

func (s *Store) Document(id string) (model.Document, bool) {
	doc, ok := s.current.Load().docs[id]
	if !ok {
		return model.Document{}, false
	}
	return doc.Clone(), true
}

func (s *Store) Documents() []model.Document {
	snap := s.current.Load()
	out := make([]model.Document, 0, len(snap.docs))
	for _, d := range snap.docs {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProcessedAt.Equal(out[j].ProcessedAt) {
			return out[i].ProcessedAt.Before(out[j].ProcessedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) DocumentsByName(name string) []model.Document {
	name = strings.TrimSpace(name)
	var out []model.Document
	for _, d := range s.Documents() {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) Chunks(documentID string) []model.Chunk {
	snap := s.current.Load()
	doc, ok := snap.docs[documentID]
	if !ok {
		return nil
	}
	return snap.chunksOf(doc)
}

func (s *Store) SearchChunks(query string, limit int) []retrieval.Result {
	return s.Query(retrieval.Query{Text: query, Limit: limit})
}

func (s *Store) Query(q retrieval.Query) []retrieval.Result {
	results := retrieval.Search(s.current.Load(), q)
	for i := range results {
		results[i].Chunk = results[i].Chunk.Clone()
	}
	return results
}

func (s *Store) ChunksByCategory(category model.Category) []model.Chunk {
	snap := s.current.Load()
	ids := make(map[string]struct{})
	for _, id := range snap.byCategory[category] {
		ids[id] = struct{}{}
	}
	return snap.collect(ids)
}

// ChunksByWeaponSystem matches tag case-insensitively against weapon-system and topic
// tags, either exactly or as a substring.
func (s *Store) ChunksByWeaponSystem(tag string) []model.Chunk {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return []model.Chunk{}
	}
	snap := s.current.Load()
	ids := make(map[string]struct{})
	for key, chunkIDs := range snap.byTag {
		if !retrieval.MatchesTag([]string{key}, tag) {
			continue
		}
		for _, id := range chunkIDs {
			ids[id] = struct{}{}
		}
	}
	return snap.collect(ids)
}

type Stats struct {
	Documents  int                    `json:"documents"`
	Chunks     int                    `json:"chunks"`
	Keywords   int                    `json:"keywords"`
	Tags       int                    `json:"tags"`
	Categories map[model.Category]int `json:"categories"`
}

func (s *Store) Stats() Stats {
	snap := s.current.Load()
	st := Stats{
		Documents:  len(snap.docs),
		Chunks:     len(snap.chunks),
		Keywords:   len(snap.byTerm),
		Tags:       len(snap.byTag),
		Categories: make(map[model.Category]int, len(snap.byCategory)),
	}
	for _, d := range snap.docs {
		st.Categories[d.Metadata.Category]++
	}
	return st
}

func Checksum(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func chunkID(documentID string, order int) string {
	return fmt.Sprintf("%s-c%04d", documentID, order)
}
