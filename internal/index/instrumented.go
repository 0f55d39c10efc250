package index

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
)

// InstrumentedStore records per-operation latency and error counts.
type InstrumentedStore struct {
	next    Store
	metrics *metrics.Metrics
}

func NewInstrumentedStore(next Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, metrics: m}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.metrics.StoreLookupDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
	}
}

func (s *InstrumentedStore) malformed(variant Variant, err error) {
	if errors.Is(err, apperrors.ErrMalformedPosting) {
		s.metrics.MalformedPostings.WithLabelValues(variant.String()).Inc()
	}
}

func (s *InstrumentedStore) WordID(ctx context.Context, word string) (WordID, bool, error) {
	start := time.Now()
	wid, ok, err := s.next.WordID(ctx, word)
	s.observe(OpWordID, start, err)
	return wid, ok, err
}

func (s *InstrumentedStore) Positions(ctx context.Context, wid WordID, variant Variant) (PositionPostings, error) {
	start := time.Now()
	out, err := s.next.Positions(ctx, wid, variant)
	s.observe(OpPositions, start, err)
	s.malformed(variant, err)
	return out, err
}

func (s *InstrumentedStore) FullPostings(ctx context.Context, wid WordID, field Field) (FullPostings, error) {
	start := time.Now()
	out, err := s.next.FullPostings(ctx, wid, field)
	s.observe(OpFullPostings, start, err)
	s.malformed(SelectVariant(field, false, false), err)
	return out, err
}

func (s *InstrumentedStore) DocumentMeta(ctx context.Context, did DocID) (DocumentMeta, bool, error) {
	start := time.Now()
	meta, ok, err := s.next.DocumentMeta(ctx, did)
	s.observe(OpDocumentMeta, start, err)
	return meta, ok, err
}

func (s *InstrumentedStore) DocIDOfURL(ctx context.Context, url string) (DocID, bool, error) {
	start := time.Now()
	did, ok, err := s.next.DocIDOfURL(ctx, url)
	s.observe(OpDocIDOfURL, start, err)
	return did, ok, err
}

func (s *InstrumentedStore) URLOfDocID(ctx context.Context, did DocID) (string, bool, error) {
	start := time.Now()
	url, ok, err := s.next.URLOfDocID(ctx, did)
	s.observe(OpURLOfDocID, start, err)
	return url, ok, err
}

func (s *InstrumentedStore) ParentIDs(ctx context.Context, did DocID) ([]DocID, error) {
	start := time.Now()
	ids, err := s.next.ParentIDs(ctx, did)
	s.observe(OpParentIDs, start, err)
	return ids, err
}

func (s *InstrumentedStore) ChildIDs(ctx context.Context, did DocID) ([]DocID, error) {
	start := time.Now()
	ids, err := s.next.ChildIDs(ctx, did)
	s.observe(OpChildIDs, start, err)
	return ids, err
}

func (s *InstrumentedStore) ForwardKeywords(ctx context.Context, did DocID) (map[string]int, error) {
	start := time.Now()
	kw, err := s.next.ForwardKeywords(ctx, did)
	s.observe(OpForwardKeywords, start, err)
	return kw, err
}

func (s *InstrumentedStore) RawBody(ctx context.Context, did DocID) (string, bool, error) {
	start := time.Now()
	body, ok, err := s.next.RawBody(ctx, did)
	s.observe(OpRawBody, start, err)
	return body, ok, err
}

func (s *InstrumentedStore) WordCount(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.next.WordCount(ctx)
	s.observe(OpWordCount, start, err)
	return n, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe(OpPing, start, err)
	return err
}
