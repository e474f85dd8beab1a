package export

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"Newton-Raphson Convergence", "Newton-Raphson-Convergence"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "doubt"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},                               // Empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderStudySheetHTML(t *testing.T) {
	data := TemplateData{
		Title:     "Asymptotic Notation Query",
		Content:   "Differentiating Big-O and Theta bounds in recursive tree analysis.",
		Category:  "Computer Science",
		Author:    "student_bob",
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Answers: []TemplateAnswer{
			{
				Author:   "student_alice",
				Step1:    "Big-O gives an upper bound only.",
				Step2:    "Theta bounds the function from both sides.",
				Verified: true,
			},
			{
				Author: "student_bob",
				Step1:  "A counterexample with n log n helps.",
			},
		},
	}

	html, err := RenderStudySheetHTML(data)
	if err != nil {
		t.Fatalf("RenderStudySheetHTML() error = %v", err)
	}

	if !strings.Contains(html, "Asymptotic Notation Query") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(html, "student_bob") {
		t.Error("HTML missing author")
	}
	if !strings.Contains(html, "Big-O gives an upper bound only.") {
		t.Error("HTML missing answer step")
	}
	if !strings.Contains(html, "Verified") {
		t.Error("HTML missing verified badge")
	}
	if !strings.Contains(html, "Solutions") {
		t.Error("HTML missing solutions section")
	}
}

func TestRenderStudySheetHTMLNoAnswers(t *testing.T) {
	data := TemplateData{
		Title:     "Newton-Raphson Convergence",
		Content:   "Why does the method diverge near inflection points?",
		Author:    "Anonymous",
		CreatedAt: time.Now(),
	}

	html, err := RenderStudySheetHTML(data)
	if err != nil {
		t.Fatalf("RenderStudySheetHTML() error = %v", err)
	}

	if strings.Contains(html, "Solutions") {
		t.Error("HTML should omit solutions section when there are no answers")
	}
}

type fakeExportStore struct {
	doubt   DoubtInfo
	answers []AnswerInfo
}

func (f *fakeExportStore) GetDoubt(ctx context.Context, id string) (DoubtInfo, error) {
	return f.doubt, nil
}

func (f *fakeExportStore) ListAnswers(ctx context.Context, doubtID string) ([]AnswerInfo, error) {
	return f.answers, nil
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(&fakeExportStore{
		doubt: DoubtInfo{ID: "d-1", Title: "Some Doubt", CreatedAt: time.Now()},
	})

	_, err := svc.Export(context.Background(), Request{DoubtID: "d-1", Format: "epub"})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("unexpected error: %v", err)
	}
}
