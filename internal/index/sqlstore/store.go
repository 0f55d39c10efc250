// Package sqlstore implements index.Store over the crawler's SQL tables.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/database"
)

// LastModifiedLayout is how the crawler writes urlList.last_modified.
const LastModifiedLayout = "01/02/2006, 15:04:05"

var postingTables = map[index.Variant]string{
	index.BodyExact:         "invertedIndex",
	index.BodyRawStemmed:    "rawInvertedIndex",
	index.BodyRawUnstemmed:  "stemmedRawInvertedIndex",
	index.TitleExact:        "titleInvertedIndex",
	index.TitleRawStemmed:   "rawTitleInvertedIndex",
	index.TitleRawUnstemmed: "stemmedRawTitleInvertedIndex",
}

// TableFor returns the postings table backing a variant.
func TableFor(v index.Variant) string {
	return postingTables[v]
}

type Store struct {
	db *database.Client
}

func New(db *database.Client) *Store {
	return &Store{db: db}
}

// EnsureSchema creates any missing index tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index schema: %w", err)
		}
	}
	return nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.DB.QueryRowContext(ctx, s.db.Rebind(query), args...)
}

func (s *Store) WordID(ctx context.Context, word string) (index.WordID, bool, error) {
	var wid int64
	err := s.queryRow(ctx, `SELECT wid FROM wordList WHERE word = ?`, word).Scan(&wid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up word %q: %w", word, err)
	}
	return index.WordID(wid), true, nil
}

func (s *Store) postingsData(ctx context.Context, wid index.WordID, v index.Variant) ([]byte, error) {
	table, ok := postingTables[v]
	if !ok {
		return nil, fmt.Errorf("no postings table for variant %s", v)
	}
	var data sql.NullString
	err := s.queryRow(ctx, `SELECT data FROM `+table+` WHERE wid = ?`, int64(wid)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s for word %d: %w", table, wid, err)
	}
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	return []byte(data.String), nil
}

func (s *Store) Positions(ctx context.Context, wid index.WordID, variant index.Variant) (index.PositionPostings, error) {
	data, err := s.postingsData(ctx, wid, variant)
	if err != nil || data == nil {
		return index.PositionPostings{}, err
	}
	out, err := index.DecodePositions(data)
	if err != nil {
		return nil, fmt.Errorf("word %d in %s: %w", wid, variant, err)
	}
	return out, nil
}

func (s *Store) FullPostings(ctx context.Context, wid index.WordID, field index.Field) (index.FullPostings, error) {
	variant := index.SelectVariant(field, false, false)
	data, err := s.postingsData(ctx, wid, variant)
	if err != nil || data == nil {
		return index.FullPostings{}, err
	}
	out, err := index.DecodeFullPostings(data)
	if err != nil {
		return nil, fmt.Errorf("word %d in %s: %w", wid, variant, err)
	}
	return out, nil
}

func (s *Store) DocumentMeta(ctx context.Context, did index.DocID) (index.DocumentMeta, bool, error) {
	var (
		url, title, lastModified sql.NullString
		size                     sql.NullInt64
		docWeight, titleWeight   sql.NullFloat64
		pageRank                 sql.NullFloat64
	)
	err := s.queryRow(ctx,
		`SELECT url, title, last_modified, content_length, document_weight, title_weight, page_rank_score FROM urlList WHERE uid = ?`,
		int64(did),
	).Scan(&url, &title, &lastModified, &size, &docWeight, &titleWeight, &pageRank)
	if errors.Is(err, sql.ErrNoRows) {
		return index.DocumentMeta{}, false, nil
	}
	if err != nil {
		return index.DocumentMeta{}, false, fmt.Errorf("reading metadata of document %d: %w", did, err)
	}

	meta := index.DocumentMeta{
		URL:            url.String,
		Title:          title.String,
		Size:           int(size.Int64),
		DocumentWeight: docWeight.Float64,
		TitleWeight:    titleWeight.Float64,
		PageRankScore:  pageRank.Float64,
	}
	if lastModified.Valid && lastModified.String != "" {
		// An unparseable stamp leaves the zero time, which every date
		// window excludes.
		if t, err := time.Parse(LastModifiedLayout, lastModified.String); err == nil {
			meta.LastModified = t
		}
	}
	return meta, true, nil
}

func (s *Store) DocIDOfURL(ctx context.Context, url string) (index.DocID, bool, error) {
	var uid int64
	err := s.queryRow(ctx, `SELECT uid FROM urlList WHERE url = ?`, url).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up url %q: %w", url, err)
	}
	return index.DocID(uid), true, nil
}

func (s *Store) URLOfDocID(ctx context.Context, did index.DocID) (string, bool, error) {
	var url sql.NullString
	err := s.queryRow(ctx, `SELECT url FROM urlList WHERE uid = ?`, int64(did)).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up url of document %d: %w", did, err)
	}
	return url.String, true, nil
}

func (s *Store) ids(ctx context.Context, query string, did index.DocID) ([]index.DocID, error) {
	rows, err := s.db.DB.QueryContext(ctx, s.db.Rebind(query), int64(did))
	if err != nil {
		return nil, fmt.Errorf("reading links of document %d: %w", did, err)
	}
	defer rows.Close()

	var out []index.DocID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning link row: %w", err)
		}
		out = append(out, index.DocID(id))
	}
	return out, rows.Err()
}

func (s *Store) ParentIDs(ctx context.Context, did index.DocID) ([]index.DocID, error) {
	return s.ids(ctx, `SELECT parentid FROM parentchild WHERE childid = ? ORDER BY parentid`, did)
}

func (s *Store) ChildIDs(ctx context.Context, did index.DocID) ([]index.DocID, error) {
	return s.ids(ctx, `SELECT childid FROM parentchild WHERE parentid = ? ORDER BY childid`, did)
}

func (s *Store) ForwardKeywords(ctx context.Context, did index.DocID) (map[string]int, error) {
	var head sql.NullString
	err := s.queryRow(ctx, `SELECT data_head FROM forwardIndex WHERE uid = ?`, int64(did)).Scan(&head)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading forward index of document %d: %w", did, err)
	}
	return index.DecodeKeywords([]byte(head.String))
}

func (s *Store) RawBody(ctx context.Context, did index.DocID) (string, bool, error) {
	var body sql.NullString
	err := s.queryRow(ctx, `SELECT body FROM urlBody WHERE uid = ?`, int64(did)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading body of document %d: %w", did, err)
	}
	return body.String, body.Valid, nil
}

func (s *Store) WordCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM wordList`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting words: %w", err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
