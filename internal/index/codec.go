package index

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

// Postings records are JSON objects keyed by decimal document id. Full
// entries are [tf, df, tfNorm, idf, [positions...]]; positional readers only
// look at the trailing positions array, which every variant carries.

const fullEntryLen = 5

func decodeEntries(data []byte) (map[string][]json.RawMessage, error) {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedPosting, err)
	}
	return raw, nil
}

func parseDocID(key string) (DocID, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: document key %q", apperrors.ErrMalformedPosting, key)
	}
	return DocID(id), nil
}

func decodePositions(raw json.RawMessage) (Positions, error) {
	var offsets []int
	if err := json.Unmarshal(raw, &offsets); err != nil {
		return nil, fmt.Errorf("%w: positions: %v", apperrors.ErrMalformedPosting, err)
	}
	return NewPositions(offsets...), nil
}

// DecodePositions decodes a positions-only view of a postings record.
func DecodePositions(data []byte) (PositionPostings, error) {
	raw, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	out := make(PositionPostings, len(raw))
	for key, entry := range raw {
		did, err := parseDocID(key)
		if err != nil {
			return nil, err
		}
		if len(entry) == 0 {
			return nil, fmt.Errorf("%w: empty entry for document %d", apperrors.ErrMalformedPosting, did)
		}
		positions, err := decodePositions(entry[len(entry)-1])
		if err != nil {
			return nil, err
		}
		out[did] = positions
	}
	return out, nil
}

// DecodeFullPostings decodes a tf-idf postings record.
func DecodeFullPostings(data []byte) (FullPostings, error) {
	raw, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	out := make(FullPostings, len(raw))
	for key, entry := range raw {
		did, err := parseDocID(key)
		if err != nil {
			return nil, err
		}
		if len(entry) < fullEntryLen {
			return nil, fmt.Errorf("%w: document %d has %d fields, want %d", apperrors.ErrMalformedPosting, did, len(entry), fullEntryLen)
		}
		var nums [4]float64
		for i := range nums {
			if err := json.Unmarshal(entry[i], &nums[i]); err != nil {
				return nil, fmt.Errorf("%w: document %d field %d: %v", apperrors.ErrMalformedPosting, did, i, err)
			}
		}
		positions, err := decodePositions(entry[4])
		if err != nil {
			return nil, err
		}
		out[did] = FullPosting{
			TF:        int(nums[0]),
			DF:        int(nums[1]),
			TFNorm:    nums[2],
			IDF:       nums[3],
			Positions: positions,
		}
	}
	return out, nil
}

// DecodeKeywords decodes a forward-index header {keyword: count}.
func DecodeKeywords(data []byte) (map[string]int, error) {
	if len(data) == 0 {
		return map[string]int{}, nil
	}
	var kw map[string]int
	if err := json.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("%w: forward index header: %v", apperrors.ErrMalformedPosting, err)
	}
	if kw == nil {
		kw = map[string]int{}
	}
	return kw, nil
}

// EncodeFullPostings is the inverse of DecodeFullPostings. Fixtures and the
// in-memory store use it so tests exercise the same wire format as the
// database.
func EncodeFullPostings(p FullPostings) ([]byte, error) {
	raw := make(map[string][]any, len(p))
	for did, fp := range p {
		raw[strconv.FormatInt(int64(did), 10)] = []any{fp.TF, fp.DF, fp.TFNorm, fp.IDF, sortedOffsets(fp.Positions)}
	}
	return json.Marshal(raw)
}

// EncodePositions writes a positions-only record in the [count, [positions]]
// layout used by the raw indexes.
func EncodePositions(p PositionPostings) ([]byte, error) {
	raw := make(map[string][]any, len(p))
	for did, pos := range p {
		raw[strconv.FormatInt(int64(did), 10)] = []any{len(pos), sortedOffsets(pos)}
	}
	return json.Marshal(raw)
}
