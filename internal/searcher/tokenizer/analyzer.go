package tokenizer

// Analyzer bundles the stopword set and stemmer a query is normalised with.
type Analyzer struct {
	Stopwords StopwordSet
	Stemmer   Stemmer
}

func NewAnalyzer(stopwords StopwordSet, stemmer Stemmer) *Analyzer {
	if stopwords == nil {
		stopwords = StopwordSet{}
	}
	if stemmer == nil {
		stemmer = PorterStemmer{}
	}
	return &Analyzer{Stopwords: stopwords, Stemmer: stemmer}
}

// Terms filters stopwords then stems, the normalisation used for the exact
// indexes.
func (a *Analyzer) Terms(tokens []string) []string {
	return StemAll(a.Stemmer, a.Stopwords.Filter(tokens))
}

// Stems stems every token and keeps stopwords, for the raw stemmed indexes.
func (a *Analyzer) Stems(tokens []string) []string {
	return StemAll(a.Stemmer, tokens)
}

// Analyze tokenizes text and returns its exact-index terms.
func (a *Analyzer) Analyze(text string) []string {
	return a.Terms(Tokenize(text))
}
