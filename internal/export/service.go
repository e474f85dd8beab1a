package export

import (
	"context"
	"fmt"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetDoubt(ctx context.Context, id string) (DoubtInfo, error)
	ListAnswers(ctx context.Context, doubtID string) ([]AnswerInfo, error)
}

// Service provides study-sheet export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates a study sheet in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	doubt, err := s.store.GetDoubt(ctx, req.DoubtID)
	if err != nil {
		return nil, fmt.Errorf("get doubt: %w", err)
	}

	author := doubt.Author
	if doubt.Anonymous {
		author = "Anonymous"
	}

	data := TemplateData{
		Title:     doubt.Title,
		Content:   doubt.Content,
		Category:  doubt.Category,
		Author:    author,
		CreatedAt: doubt.CreatedAt,
		Answers:   []TemplateAnswer{},
	}

	if req.IncludeAnswers {
		answers, err := s.store.ListAnswers(ctx, req.DoubtID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}

		for _, a := range answers {
			if req.VerifiedOnly && !a.Verified {
				continue
			}
			data.Answers = append(data.Answers, TemplateAnswer{
				Author:   a.Author,
				Step1:    a.Step1,
				Step2:    a.Step2,
				Step3:    a.Step3,
				Verified: a.Verified,
			})
		}
	}

	html, err := RenderStudySheetHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, doubt.Title)
	case FormatDOCX:
		return exportDOCX(html, doubt.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
