package index

import (
	"context"
	"sort"
	"sync"
)

type recordKey struct {
	wid     WordID
	variant Variant
}

// MemoryStore is a Store held entirely in memory. Postings are kept in their
// encoded form and decoded on every lookup, like the SQL store, so fixtures
// can also carry deliberately malformed records.
type MemoryStore struct {
	mu       sync.RWMutex
	words    map[string]WordID
	records  map[recordKey][]byte
	docs     map[DocID]DocumentMeta
	urls     map[string]DocID
	parents  map[DocID][]DocID
	children map[DocID][]DocID
	keywords map[DocID]map[string]int
	bodies   map[DocID]string
	calls    map[string]int
	failure  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		words:    make(map[string]WordID),
		records:  make(map[recordKey][]byte),
		docs:     make(map[DocID]DocumentMeta),
		urls:     make(map[string]DocID),
		parents:  make(map[DocID][]DocID),
		children: make(map[DocID][]DocID),
		keywords: make(map[DocID]map[string]int),
		bodies:   make(map[DocID]string),
		calls:    make(map[string]int),
	}
}

func (m *MemoryStore) AddWord(word string, wid WordID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[word] = wid
}

// SetFullPostings stores the tf-idf record of a term. It doubles as the
// positional record of the field's exact variant.
func (m *MemoryStore) SetFullPostings(wid WordID, field Field, p FullPostings) {
	data, err := EncodeFullPostings(p)
	if err != nil {
		panic(err)
	}
	m.SetRawRecord(wid, SelectVariant(field, false, false), data)
}

// SetPositions stores a positions-only record for a raw variant.
func (m *MemoryStore) SetPositions(wid WordID, variant Variant, p PositionPostings) {
	data, err := EncodePositions(p)
	if err != nil {
		panic(err)
	}
	m.SetRawRecord(wid, variant, data)
}

// SetRawRecord stores data verbatim as the record of (wid, variant).
func (m *MemoryStore) SetRawRecord(wid WordID, variant Variant, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey{wid, variant}] = data
}

func (m *MemoryStore) AddDocument(did DocID, meta DocumentMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[did] = meta
	m.urls[meta.URL] = did
}

func (m *MemoryStore) AddLink(parent, child DocID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[parent] = append(m.children[parent], child)
	m.parents[child] = append(m.parents[child], parent)
}

func (m *MemoryStore) SetKeywords(did DocID, kw map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords[did] = kw
}

func (m *MemoryStore) SetBody(did DocID, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[did] = body
}

// SetFailure makes every lookup return err until called again with nil.
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// Calls returns how many times op was looked up.
func (m *MemoryStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

func (m *MemoryStore) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.failure
}

func (m *MemoryStore) WordID(ctx context.Context, word string) (WordID, bool, error) {
	if err := m.begin(OpWordID); err != nil {
		return 0, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	wid, ok := m.words[word]
	return wid, ok, nil
}

func (m *MemoryStore) record(wid WordID, variant Variant) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[recordKey{wid, variant}]
}

func (m *MemoryStore) Positions(ctx context.Context, wid WordID, variant Variant) (PositionPostings, error) {
	if err := m.begin(OpPositions); err != nil {
		return nil, err
	}
	data := m.record(wid, variant)
	if data == nil {
		return PositionPostings{}, nil
	}
	return DecodePositions(data)
}

func (m *MemoryStore) FullPostings(ctx context.Context, wid WordID, field Field) (FullPostings, error) {
	if err := m.begin(OpFullPostings); err != nil {
		return nil, err
	}
	data := m.record(wid, SelectVariant(field, false, false))
	if data == nil {
		return FullPostings{}, nil
	}
	return DecodeFullPostings(data)
}

func (m *MemoryStore) DocumentMeta(ctx context.Context, did DocID) (DocumentMeta, bool, error) {
	if err := m.begin(OpDocumentMeta); err != nil {
		return DocumentMeta{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.docs[did]
	return meta, ok, nil
}

func (m *MemoryStore) DocIDOfURL(ctx context.Context, url string) (DocID, bool, error) {
	if err := m.begin(OpDocIDOfURL); err != nil {
		return 0, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	did, ok := m.urls[url]
	return did, ok, nil
}

func (m *MemoryStore) URLOfDocID(ctx context.Context, did DocID) (string, bool, error) {
	if err := m.begin(OpURLOfDocID); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.docs[did]
	return meta.URL, ok, nil
}

func (m *MemoryStore) ParentIDs(ctx context.Context, did DocID) ([]DocID, error) {
	if err := m.begin(OpParentIDs); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.parents[did]), nil
}

func (m *MemoryStore) ChildIDs(ctx context.Context, did DocID) ([]DocID, error) {
	if err := m.begin(OpChildIDs); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedIDs(m.children[did]), nil
}

func (m *MemoryStore) ForwardKeywords(ctx context.Context, did DocID) (map[string]int, error) {
	if err := m.begin(OpForwardKeywords); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.keywords[did]))
	for k, v := range m.keywords[did] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) RawBody(ctx context.Context, did DocID) (string, bool, error) {
	if err := m.begin(OpRawBody); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.bodies[did]
	return body, ok, nil
}

func (m *MemoryStore) WordCount(ctx context.Context) (int64, error) {
	if err := m.begin(OpWordCount); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.words)), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.begin(OpPing)
}

func sortedIDs(ids []DocID) []DocID {
	out := append([]DocID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
