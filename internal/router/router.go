// Package router decides whether a question is answered from the student
// directory or by the knowledge base, and phrases the answer.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/store"
)

// Fixed user-facing sentences.
const (
	UnavailableAnswer = "I'm sorry, my knowledge base is currently unavailable. Please try again later."
	ErrorAnswer       = "I encountered an error while processing your request. Please try again."
)

// Directory is read access to students and their attendance.
type Directory interface {
	FindByIdentifier(ctx context.Context, id string) (*store.User, error)
	FindByExactName(ctx context.Context, name string) (*store.User, error)
	FindByPartialName(ctx context.Context, fragment string) (*store.User, error)
	ListAfter(ctx context.Context, examNo string, limit int) ([]store.User, error)
	ListBefore(ctx context.Context, examNo string, limit int) ([]store.User, error)
	AttendanceFor(ctx context.Context, userID int64) ([]store.Attendance, error)
}

// Answerer answers free-text questions from the document knowledge base.
type Answerer interface {
	Invoke(ctx context.Context, question string) (string, error)
}

// Role is the normalised caller role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
)

// NormalizeRole maps free-form role strings onto the known roles.
func NormalizeRole(raw string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r
	default:
		return RoleGuest
	}
}

// Query is a single question being routed.
type Query struct {
	Text  string
	Lower string
	Role  Role
}

type matcher struct {
	name string
	fn   func(ctx context.Context, q Query) (string, bool, error)
}

// Router evaluates matchers in a fixed order; the first match answers.
type Router struct {
	dir      Directory
	rag      Answerer
	now      func() time.Time
	matchers []matcher
}

// Option configures a Router.
type Option func(*Router)

// WithClock sets the clock used to resolve "today" and "tomorrow".
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a Router. rag may be nil when no knowledge base is loaded.
func New(dir Directory, rag Answerer, opts ...Option) *Router {
	r := &Router{
		dir: dir,
		rag: rag,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.matchers = []matcher{
		{name: "relational", fn: r.matchRelational},
		{name: "name", fn: r.matchName},
		{name: "identifier", fn: r.matchIdentifier},
		{name: "timetable", fn: r.matchTimetable},
		{name: "rag", fn: r.matchFallback},
	}

	return r
}

// Route answers a question. It never fails; errors become fixed sentences.
func (r *Router) Route(ctx context.Context, text, role string) string {
	q := Query{
		Text:  strings.TrimSpace(text),
		Lower: strings.ToLower(text),
		Role:  NormalizeRole(role),
	}

	for _, m := range r.matchers {
		answer, ok, err := m.fn(ctx, q)
		if err != nil {
			slog.Error("Query routing failed", "branch", m.name, "role", q.Role, "error", err)
			return ErrorAnswer
		}
		if ok {
			slog.Info("Query answered", "branch", m.name, "role", q.Role)
			return answer
		}
	}

	return ErrorAnswer
}

func (r *Router) matchFallback(ctx context.Context, q Query) (string, bool, error) {
	return r.ask(ctx, q.Text), true, nil
}

// ask delegates to the knowledge base and maps failures to fixed sentences.
func (r *Router) ask(ctx context.Context, question string) string {
	if r.rag == nil {
		return UnavailableAnswer
	}

	answer, err := r.rag.Invoke(ctx, question)
	if err != nil {
		slog.Error("Knowledge base query failed", "error", err)
		return ErrorAnswer
	}

	return strings.TrimSpace(answer)
}

// lookup treats ErrNotFound as a miss rather than a failure.
func lookup(u *store.User, err error) (*store.User, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
