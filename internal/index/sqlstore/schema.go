package sqlstore

// Schema creates the index tables when they are missing. The crawler that
// fills them lives elsewhere; searchctl and the tests use this to prepare an
// empty database.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS wordList (wid INTEGER PRIMARY KEY, word TEXT)`,
	`CREATE TABLE IF NOT EXISTS urlList (uid INTEGER PRIMARY KEY, url TEXT, title TEXT, last_modified TEXT, content_length INTEGER, num_child INTEGER, document_weight REAL, title_weight REAL, page_rank_score REAL)`,
	`CREATE TABLE IF NOT EXISTS parentchild (parentid INTEGER, childid INTEGER, PRIMARY KEY (parentid, childid))`,
	`CREATE TABLE IF NOT EXISTS invertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS rawInvertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS stemmedRawInvertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS titleInvertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS rawTitleInvertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS stemmedRawTitleInvertedIndex (wid INTEGER PRIMARY KEY, count INTEGER, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS forwardIndex (uid INTEGER PRIMARY KEY, count INTEGER, data_head TEXT, data TEXT)`,
	`CREATE TABLE IF NOT EXISTS urlBody (uid INTEGER PRIMARY KEY, body TEXT)`,
}
