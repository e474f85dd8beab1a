package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDoubt indexes a doubt (fire-and-forget to Meilisearch).
func (s *Service) IndexDoubt(d DoubtRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexDoubt(d); err != nil {
			log.Printf("search: index doubt %s: %v", d.ID, err)
		}
	}()
}

// IndexAnswer indexes an answer (fire-and-forget to Meilisearch).
func (s *Service) IndexAnswer(a AnswerRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexAnswer(a); err != nil {
			log.Printf("search: index answer %s: %v", a.ID, err)
		}
	}()
}

// DeleteDoubt removes a doubt from the search index (fire-and-forget).
func (s *Service) DeleteDoubt(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteDoubt(id); err != nil {
			log.Printf("search: delete doubt %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes the given records to Meilisearch.
// Called during Bootstrap if Meilisearch is healthy.
func (s *Service) ReindexAll(doubts []DoubtRecord, answers []AnswerRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(doubts) > 0 {
		if err := s.meili.IndexDoubts(doubts); err != nil {
			log.Printf("search: reindex doubts: %v", err)
		}
	}
	if len(answers) > 0 {
		if err := s.meili.IndexAnswers(answers); err != nil {
			log.Printf("search: reindex answers: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	doubts, answers, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(doubts, answers)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
