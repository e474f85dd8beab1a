// Package similarity implements the duplicate-title heuristic used to
// discourage redundant doubt postings. It is a cheap keyword-overlap
// check, not a semantic search: the caller may always force-publish.
package similarity

import "strings"

// Threshold is the minimum keyword overlap for a title to count as similar.
const Threshold = 2

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "how": {},
	"to": {}, "for": {}, "of": {}, "and": {}, "in": {}, "can": {},
	"you": {}, "explain": {}, "what": {}, "help": {}, "with": {},
}

// Title is one entry of the existing-doubt corpus.
type Title struct {
	ID   string
	Text string
}

// Match is an existing doubt whose title overlaps the candidate.
type Match struct {
	ID         string
	Title      string
	MatchCount int
}

// Keywords extracts the significant tokens of a candidate title:
// lowercase whitespace tokens longer than two characters that are not
// stop words.
func Keywords(title string) []string {
	tokens := strings.Fields(strings.ToLower(title))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// FindSimilar returns every corpus title whose word set contains at
// least Threshold of the candidate's keywords. Existing titles are
// tokenized without stop-word filtering so that a short existing title
// can still be matched exactly.
func FindSimilar(candidate string, corpus []Title) []Match {
	keywords := Keywords(candidate)
	if len(keywords) < Threshold {
		return nil
	}

	var matches []Match
	for _, existing := range corpus {
		existingWords := make(map[string]struct{})
		for _, token := range strings.Fields(strings.ToLower(existing.Text)) {
			existingWords[token] = struct{}{}
		}
		count := 0
		for _, keyword := range keywords {
			if _, ok := existingWords[keyword]; ok {
				count++
			}
		}
		if count >= Threshold {
			matches = append(matches, Match{ID: existing.ID, Title: existing.Text, MatchCount: count})
		}
	}
	return matches
}
