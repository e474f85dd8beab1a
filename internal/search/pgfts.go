package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across doubts and answers using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Doubts sub-query
	if q.FilterType == "" || q.FilterType == ResultDoubt {
		doubtWhere := "d.fts @@ " + tsQuery
		if q.FilterCategory != "" {
			doubtWhere += fmt.Sprintf(" AND d.category = $%d", argN)
			args = append(args, q.FilterCategory)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'doubt'::text AS type, d.id, d.title,
				ts_headline('english', coalesce(d.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				d.id AS doubt_id, d.category,
				false AS verified,
				ts_rank(d.fts, %s) AS rank
			FROM doubts d
			WHERE %s`, tsQuery, tsQuery, doubtWhere))
	}

	// Answers sub-query
	if q.FilterType == "" || q.FilterType == ResultAnswer {
		answerWhere := "a.fts @@ " + tsQuery
		if q.FilterCategory != "" {
			answerWhere += fmt.Sprintf(" AND d.category = $%d", argN)
			args = append(args, q.FilterCategory)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'answer'::text AS type, a.id, d.title,
				ts_headline('english', concat_ws(' ', a.step1, a.step2, a.step3), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				a.doubt_id, d.category,
				a.is_verified AS verified,
				ts_rank(a.fts, %s) AS rank
			FROM answers a
			JOIN doubts d ON d.id = a.doubt_id
			WHERE %s`, tsQuery, tsQuery, answerWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	// Count query
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	// Data query
	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, doubt_id, category, verified
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.DoubtID, &r.Category, &r.Verified); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DoubtRecord, []AnswerRecord, error) {
	doubtRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content, category
		FROM doubts
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load doubts: %w", err)
	}
	defer doubtRows.Close()

	doubts := make([]DoubtRecord, 0)
	for doubtRows.Next() {
		var d DoubtRecord
		if err := doubtRows.Scan(&d.ID, &d.Title, &d.Content, &d.Category); err != nil {
			return nil, nil, fmt.Errorf("scan doubt: %w", err)
		}
		doubts = append(doubts, d)
	}
	if err := doubtRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate doubts: %w", err)
	}

	answerRows, err := p.db.QueryContext(ctx, `
		SELECT id, doubt_id, concat_ws(' ', step1, step2, step3), is_verified
		FROM answers
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load answers: %w", err)
	}
	defer answerRows.Close()

	answers := make([]AnswerRecord, 0)
	for answerRows.Next() {
		var a AnswerRecord
		if err := answerRows.Scan(&a.ID, &a.DoubtID, &a.Body, &a.Verified); err != nil {
			return nil, nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := answerRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate answers: %w", err)
	}

	return doubts, answers, nil
}
