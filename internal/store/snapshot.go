package store

import (
	"sort"

	"gopherai-training/internal/model"
	"gopherai-training/internal/retrieval"
)

// snapshot is an immutable view of the corpus. Writers build a new snapshot and
// publish it atomically; readers never see a partially applied write.
type snapshot struct {
	docs       map[string]model.Document
	chunks     map[string]model.Chunk
	byCategory map[model.Category][]string
	byTag      map[string][]string
	byTerm     map[string][]string
}

var _ retrieval.Index = (*snapshot)(nil)

func emptySnapshot() *snapshot {
	return &snapshot{
		docs:       map[string]model.Document{},
		chunks:     map[string]model.Chunk{},
		byCategory: map[model.Category][]string{},
		byTag:      map[string][]string{},
		byTerm:     map[string][]string{},
	}
}

// clone copies the maps but shares the id slices; mutations must go through
// mergeKeys/pruneKey, which never modify a shared slice in place.
func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		docs:       make(map[string]model.Document, len(s.docs)+1),
		chunks:     make(map[string]model.Chunk, len(s.chunks)),
		byCategory: make(map[model.Category][]string, len(s.byCategory)),
		byTag:      make(map[string][]string, len(s.byTag)),
		byTerm:     make(map[string][]string, len(s.byTerm)),
	}
	for k, v := range s.docs {
		next.docs[k] = v
	}
	for k, v := range s.chunks {
		next.chunks[k] = v
	}
	for k, v := range s.byCategory {
		next.byCategory[k] = v
	}
	for k, v := range s.byTag {
		next.byTag[k] = v
	}
	for k, v := range s.byTerm {
		next.byTerm[k] = v
	}
	return next
}

func (s *snapshot) ChunkIDsForTerm(term string) []string {
	return s.byTerm[term]
}

func (s *snapshot) Chunk(id string) (model.Chunk, bool) {
	c, ok := s.chunks[id]
	return c, ok
}

func (s *snapshot) addDocument(doc model.Document, chunks []model.Chunk) {
	s.docs[doc.ID] = doc
	categories := map[model.Category][]string{}
	tags := map[string][]string{}
	terms := map[string][]string{}
	for _, c := range chunks {
		s.chunks[c.ID] = c
		categories[c.Metadata.Category] = append(categories[c.Metadata.Category], c.ID)
		for _, tag := range c.Metadata.Tags() {
			tags[tag] = append(tags[tag], c.ID)
		}
		for _, term := range retrieval.Tokenize(c.Content) {
			terms[term] = append(terms[term], c.ID)
		}
	}
	mergeKeys(s.byCategory, categories)
	mergeKeys(s.byTag, tags)
	mergeKeys(s.byTerm, terms)
}

func (s *snapshot) removeDocument(id string) bool {
	doc, ok := s.docs[id]
	if !ok {
		return false
	}
	dead := make(map[string]struct{}, len(doc.ChunkIDs))
	for _, cid := range doc.ChunkIDs {
		c, ok := s.chunks[cid]
		if !ok {
			continue
		}
		dead[cid] = struct{}{}
		pruneKey(s.byCategory, c.Metadata.Category, dead)
		for _, tag := range c.Metadata.Tags() {
			pruneKey(s.byTag, tag, dead)
		}
		for _, term := range retrieval.Tokenize(c.Content) {
			pruneKey(s.byTerm, term, dead)
		}
		delete(s.chunks, cid)
	}
	delete(s.docs, id)
	return true
}

func (s *snapshot) chunksOf(doc model.Document) []model.Chunk {
	out := make([]model.Chunk, 0, len(doc.ChunkIDs))
	for _, id := range doc.ChunkIDs {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (s *snapshot) collect(ids map[string]struct{}) []model.Chunk {
	out := make([]model.Chunk, 0, len(ids))
	for id := range ids {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c.Clone())
		}
	}
	sortChunks(out)
	return out
}

// mergeKeys appends additions into fresh slices so snapshots sharing the old slices
// are unaffected.
func mergeKeys[K comparable](index map[K][]string, additions map[K][]string) {
	for key, ids := range additions {
		existing := index[key]
		next := make([]string, 0, len(existing)+len(ids))
		next = append(next, existing...)
		index[key] = append(next, ids...)
	}
}

func pruneKey[K comparable](index map[K][]string, key K, dead map[string]struct{}) {
	ids, ok := index[key]
	if !ok {
		return
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, gone := dead[id]; !gone {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(index, key)
		return
	}
	index[key] = kept
}

func sortChunks(chunks []model.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Order < chunks[j].Order
	})
}
