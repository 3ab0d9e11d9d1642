package app

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"gopherai-training/internal/errs"
	"gopherai-training/internal/model"
	"gopherai-training/internal/retrieval"
	"gopherai-training/internal/store"
)

type SourceArchive interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// EventSink receives every committed store write, for mirroring to durable storage.
type EventSink interface {
	Publish(ctx context.Context, event model.StoreEvent) error
}

type EventSinkFunc func(ctx context.Context, event model.StoreEvent) error

func (f EventSinkFunc) Publish(ctx context.Context, event model.StoreEvent) error {
	return f(ctx, event)
}

type KnowledgeService struct {
	// commitMu spans a store write and its event so sinks see writes in commit order.
	commitMu       sync.Mutex
	store          *store.Store
	archive        SourceArchive
	events         EventSink
	minIngestChars int
	now            func() time.Time
}

type KnowledgeOption func(*KnowledgeService)

func WithSourceArchive(a SourceArchive) KnowledgeOption {
	return func(s *KnowledgeService) { s.archive = a }
}

func WithEventSink(sink EventSink) KnowledgeOption {
	return func(s *KnowledgeService) { s.events = sink }
}

func WithMinIngestChars(n int) KnowledgeOption {
	return func(s *KnowledgeService) {
		if n > 0 {
			s.minIngestChars = n
		}
	}
}

func NewKnowledgeService(st *store.Store, opts ...KnowledgeOption) *KnowledgeService {
	s := &KnowledgeService{
		store:          st,
		minIngestChars: DefaultMinIngestChars,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KnowledgeService) Store() *store.Store {
	return s.store
}

func (s *KnowledgeService) HasArchive() bool {
	return s.archive != nil
}

type IngestInput struct {
	Name          string
	Content       string
	Category      string
	WeaponSystems []string
	CourseTypes   []string
	Topics        []string
	PageCount     int
}

func (s *KnowledgeService) Ingest(ctx context.Context, input IngestInput) (*store.IngestResult, error) {
	if err := required("documentName", input.Name); err != nil {
		return nil, err
	}
	if err := minChars("content", input.Content, s.minIngestChars); err != nil {
		return nil, err
	}
	category, ok := model.ParseCategory(input.Category)
	if !ok {
		return nil, invalidCategory()
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	res, err := s.store.Ingest(store.IngestRequest{
		Name:    input.Name,
		Content: input.Content,
		Metadata: model.Metadata{
			Category:      category,
			WeaponSystems: model.NormalizeSet(input.WeaponSystems),
			CourseTypes:   model.NormalizeSet(input.CourseTypes),
			Topics:        model.NormalizeSet(input.Topics),
		},
		PageCount: input.PageCount,
	})
	if err != nil {
		log.Printf("ingest document %q failed: %v", input.Name, err)
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, res.DocumentID, []byte(strings.TrimSpace(input.Content))); err != nil {
			log.Printf("archive source for %s failed: %v", res.DocumentID, err)
		}
	}
	doc := res.Document
	s.publish(ctx, model.StoreEvent{
		Type:       model.EventDocumentIngested,
		DocumentID: res.DocumentID,
		Document:   &doc,
		Chunks:     res.Chunks,
		OccurredAt: s.now().UTC(),
	})
	log.Printf("ingested document %s (%q): %d chunks", res.DocumentID, doc.Name, res.ChunkCount)
	return res, nil
}

// ReplaceByName ingests input and then removes every older document with the same name.
// The new document is visible before the old ones disappear.
func (s *KnowledgeService) ReplaceByName(ctx context.Context, input IngestInput) (*store.IngestResult, error) {
	previous := s.store.DocumentsByName(input.Name)
	res, err := s.Ingest(ctx, input)
	if err != nil {
		return nil, err
	}
	for _, d := range previous {
		s.Remove(ctx, d.ID)
	}
	return res, nil
}

func (s *KnowledgeService) HasDocument(name, content string) bool {
	sum := store.Checksum(strings.TrimSpace(content))
	for _, d := range s.store.DocumentsByName(name) {
		if d.Checksum == sum {
			return true
		}
	}
	return false
}

type DocumentDetail struct {
	Document model.Document `json:"document"`
	Chunks   []model.Chunk  `json:"chunks"`
}

func (s *KnowledgeService) Get(id string) (*DocumentDetail, error) {
	doc, ok := s.store.Document(id)
	if !ok {
		return nil, errs.NotFound("document %s not found", id)
	}
	return &DocumentDetail{Document: doc, Chunks: s.store.Chunks(id)}, nil
}

const (
	ListModeAll    = "all"
	ListModeSearch = "search"
	ListModeFilter = "filter"
)

type ListInput struct {
	Query        string
	Category     string
	WeaponSystem string
	Limit        int
}

type ListResult struct {
	Mode      string             `json:"mode"`
	Documents []model.Document   `json:"documents,omitempty"`
	Results   []retrieval.Result `json:"results,omitempty"`
	Chunks    []model.Chunk      `json:"chunks,omitempty"`
	Total     int                `json:"total"`
}

// List runs one of three modes: a ranked keyword search when Query is set, a metadata
// filter when only Category or WeaponSystem is set, otherwise every document.
func (s *KnowledgeService) List(input ListInput) (*ListResult, error) {
	var filter retrieval.Filter
	if strings.TrimSpace(input.Category) != "" {
		category, ok := model.ParseCategory(input.Category)
		if !ok {
			return nil, invalidCategory()
		}
		filter.Category = category
	}
	filter.WeaponSystem = strings.TrimSpace(input.WeaponSystem)

	switch {
	case strings.TrimSpace(input.Query) != "":
		results := s.store.Query(retrieval.Query{Text: input.Query, Filter: filter, Limit: input.Limit})
		return &ListResult{Mode: ListModeSearch, Results: results, Total: len(results)}, nil
	case !filter.Empty():
		chunks := s.filterChunks(filter)
		if input.Limit > 0 && len(chunks) > input.Limit {
			chunks = chunks[:input.Limit]
		}
		return &ListResult{Mode: ListModeFilter, Chunks: chunks, Total: len(chunks)}, nil
	default:
		docs := s.store.Documents()
		return &ListResult{Mode: ListModeAll, Documents: docs, Total: len(docs)}, nil
	}
}

func (s *KnowledgeService) filterChunks(filter retrieval.Filter) []model.Chunk {
	var base []model.Chunk
	if filter.Category != "" {
		base = s.store.ChunksByCategory(filter.Category)
	} else {
		base = s.store.ChunksByWeaponSystem(filter.WeaponSystem)
	}
	out := make([]model.Chunk, 0, len(base))
	for _, c := range base {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *KnowledgeService) Remove(ctx context.Context, id string) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.store.Remove(id) {
		return false
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, id); err != nil {
			log.Printf("delete archived source %s failed: %v", id, err)
		}
	}
	s.publish(ctx, model.StoreEvent{
		Type:       model.EventDocumentRemoved,
		DocumentID: id,
		OccurredAt: s.now().UTC(),
	})
	log.Printf("removed document %s", id)
	return true
}

func (s *KnowledgeService) RemoveByName(ctx context.Context, name string) int {
	removed := 0
	for _, d := range s.store.DocumentsByName(name) {
		if s.Remove(ctx, d.ID) {
			removed++
		}
	}
	return removed
}

func (s *KnowledgeService) Source(ctx context.Context, id string) (string, error) {
	if _, ok := s.store.Document(id); !ok {
		return "", errs.NotFound("document %s not found", id)
	}
	if s.archive == nil {
		return "", errs.NotFound("source archive is not configured")
	}
	raw, err := s.archive.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *KnowledgeService) Stats() store.Stats {
	return s.store.Stats()
}

func (s *KnowledgeService) publish(ctx context.Context, event model.StoreEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for %s failed: %v", event.Type, event.DocumentID, err)
	}
}

func joinCategories() string {
	cats := model.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func invalidCategory() error {
	return errs.Validation("category must be one of %s", joinCategories())
}
