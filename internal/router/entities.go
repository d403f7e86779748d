package router

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/ekisa-team/campus-assistant/internal/store"
)

const (
	maxNameWords   = 4
	minNameLetters = 3
	relationalMax  = 10
)

var (
	identifierPattern = regexp.MustCompile(`(?i)\b(IT\d{3}|\d{2}[A-Z]{3}\w+)\b`)
	nameKeyword       = regexp.MustCompile(`(?i)\b(?:of|for|is|named|about)\b`)
	relationalIntent  = regexp.MustCompile(`(?i)\b(?:list|show|who\s+are|who's)\b`)
	relationalAnchor  = regexp.MustCompile(`(?i)\bstudents?\s+(after|before)\s+(.+)$`)
)

// Words that never form part of a name.
var stopWords = toSet(
	"a", "an", "the", "me", "my", "his", "her", "their", "them", "its", "it", "this", "that",
	"of", "for", "is", "named", "about", "to", "in", "on", "at", "and", "or", "with", "by", "from",
	"what", "who", "whose", "which", "how", "when", "where", "why", "many", "much",
	"please", "tell", "show", "give", "list", "find", "get", "can", "could", "you", "i", "we",
	"do", "does", "did", "was", "are", "be", "has", "have", "also", "all", "any", "there",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"today", "tomorrow",
)

// Domain words that describe what is being asked rather than who.
var intentWords = toSet(
	"attendance", "student", "students", "id", "exam", "no", "number", "roll",
	"details", "detail", "info", "information", "record", "records", "percentage",
	"timetable", "schedule", "lecture", "lectures", "class", "classes", "period", "periods",
	"after", "before", "name",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func cleanWord(w string) string {
	w = strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, suffix := range []string{"'s", "’s"} {
		w = strings.TrimSuffix(w, suffix)
	}
	return w
}

func isNameWord(w string) bool {
	if w == "" {
		return false
	}
	lw := strings.ToLower(w)
	if stopWords[lw] || intentWords[lw] {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '.' && r != '\'' && r != '-' {
			return false
		}
	}
	return true
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// nameCandidates extracts the possible student names mentioned in text.
func nameCandidates(text string) []string {
	var candidates []string
	seen := map[string]bool{}

	add := func(c string) {
		key := strings.ToLower(c)
		if letterCount(c) < minNameLetters || seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, c)
	}

	for _, loc := range nameKeyword.FindAllStringIndex(text, -1) {
		words := strings.Fields(text[loc[1]:])

		var name []string
		for _, raw := range words {
			w := cleanWord(raw)
			if !isNameWord(w) {
				if len(name) > 0 {
					break
				}
				lw := strings.ToLower(w)
				if stopWords[lw] || intentWords[lw] {
					continue
				}
				break
			}
			name = append(name, w)
			if len(name) == maxNameWords || strings.ContainsAny(raw, "?!,;") {
				break
			}
		}
		if len(name) > 0 {
			add(strings.Join(name, " "))
		}
	}

	if fields := strings.Fields(text); len(fields) > 0 && len(fields) <= 3 {
		words := make([]string, 0, len(fields))
		for _, f := range fields {
			if w := cleanWord(f); w != "" {
				words = append(words, w)
			}
		}
		add(strings.Join(words, " "))
	}

	return candidates
}

// findByName tries an exact then a partial match for every candidate.
func (r *Router) findByName(ctx context.Context, candidates []string) (*store.User, error) {
	for _, c := range candidates {
		u, err := lookup(r.dir.FindByExactName(ctx, c))
		if err != nil || u != nil {
			return u, err
		}
	}
	for _, c := range candidates {
		u, err := lookup(r.dir.FindByPartialName(ctx, c))
		if err != nil || u != nil {
			return u, err
		}
	}
	return nil, nil
}

// findByIdentifier looks up every identifier-like token in order.
func (r *Router) findByIdentifier(ctx context.Context, text string) (*store.User, error) {
	for _, id := range identifierPattern.FindAllString(text, -1) {
		u, err := lookup(r.dir.FindByIdentifier(ctx, id))
		if err != nil || u != nil {
			return u, err
		}
	}
	return nil, nil
}

func (r *Router) matchName(ctx context.Context, q Query) (string, bool, error) {
	u, err := r.findByName(ctx, nameCandidates(q.Text))
	if err != nil || u == nil {
		return "", false, err
	}
	return r.describe(ctx, q, u)
}

func (r *Router) matchIdentifier(ctx context.Context, q Query) (string, bool, error) {
	u, err := r.findByIdentifier(ctx, q.Text)
	if err != nil || u == nil {
		return "", false, err
	}
	return r.describe(ctx, q, u)
}

func (r *Router) matchRelational(ctx context.Context, q Query) (string, bool, error) {
	if !relationalIntent.MatchString(q.Text) {
		return "", false, nil
	}
	m := relationalAnchor.FindStringSubmatch(q.Text)
	if m == nil {
		return "", false, nil
	}

	direction := strings.ToLower(m[1])
	anchorText := strings.TrimRight(strings.TrimSpace(m[2]), "?.! ")

	anchor, err := r.findByIdentifier(ctx, anchorText)
	if err != nil {
		return "", false, err
	}
	if anchor == nil {
		var words []string
		for _, f := range strings.Fields(anchorText) {
			if w := cleanWord(f); w != "" {
				words = append(words, w)
			}
		}
		if anchor, err = r.findByName(ctx, []string{strings.Join(words, " ")}); err != nil {
			return "", false, err
		}
	}
	if anchor == nil {
		return "", false, nil
	}

	var users []store.User
	if direction == "after" {
		users, err = r.dir.ListAfter(ctx, anchor.ExamNo, relationalMax)
	} else {
		users, err = r.dir.ListBefore(ctx, anchor.ExamNo, relationalMax)
	}
	if err != nil {
		return "", false, err
	}

	return formatNeighbours(direction, anchor, users), true, nil
}
