package index

// Operation names used in metrics labels, logs and the memory store's
// call counters.
const (
	OpWordID          = "word_id"
	OpPositions       = "positions"
	OpFullPostings    = "full_postings"
	OpDocumentMeta    = "document_meta"
	OpDocIDOfURL      = "doc_id_of_url"
	OpURLOfDocID      = "url_of_doc_id"
	OpParentIDs       = "parent_ids"
	OpChildIDs        = "child_ids"
	OpForwardKeywords = "forward_keywords"
	OpRawBody         = "raw_body"
	OpWordCount       = "word_count"
	OpPing            = "ping"
)
