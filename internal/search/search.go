package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultDoubt  ResultType = "doubt"
	ResultAnswer ResultType = "answer"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	DoubtID  string     `json:"doubtId"`
	Category string     `json:"category,omitempty"`
	Verified bool       `json:"verified,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text           string
	FilterType     ResultType // empty = all types
	FilterCategory string
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexDoubt(d DoubtRecord) error
	IndexAnswer(a AnswerRecord) error
	DeleteDoubt(id string) error
}

// DoubtRecord is the data we index for a doubt.
type DoubtRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// AnswerRecord is the data we index for an answer.
type AnswerRecord struct {
	ID       string `json:"id"`
	DoubtID  string `json:"doubtId"`
	Body     string `json:"body"`
	Verified bool   `json:"verified"`
}
