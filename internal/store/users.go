package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "name", "role", "exam_no", "student_id"}

// FindByIdentifier returns the user whose exam_no or student_id equals id, ignoring case.
func (s *Store) FindByIdentifier(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, s.sb.Select(userColumns...).
		From("users").
		Where("LOWER(exam_no) = LOWER(?) OR LOWER(student_id) = LOWER(?)", id, id).
		OrderBy("exam_no").
		Limit(1))
}

// FindByExactName returns the user whose name equals name, ignoring case.
func (s *Store) FindByExactName(ctx context.Context, name string) (*User, error) {
	return s.getUser(ctx, s.sb.Select(userColumns...).
		From("users").
		Where("LOWER(name) = LOWER(?)", name).
		OrderBy("exam_no").
		Limit(1))
}

// FindByPartialName returns the first user, by exam_no, whose name contains fragment.
func (s *Store) FindByPartialName(ctx context.Context, fragment string) (*User, error) {
	return s.getUser(ctx, s.sb.Select(userColumns...).
		From("users").
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(fragment)+"%").
		OrderBy("exam_no").
		Limit(1))
}

// ListAfter returns up to limit users with exam_no strictly greater than examNo, ascending.
func (s *Store) ListAfter(ctx context.Context, examNo string, limit int) ([]User, error) {
	return s.listUsers(ctx, s.sb.Select(userColumns...).
		From("users").
		Where(sq.Gt{"exam_no": examNo}).
		OrderBy("exam_no ASC").
		Limit(uint64(limit)))
}

// ListBefore returns up to limit users with exam_no strictly less than examNo, nearest first.
func (s *Store) ListBefore(ctx context.Context, examNo string, limit int) ([]User, error) {
	return s.listUsers(ctx, s.sb.Select(userColumns...).
		From("users").
		Where(sq.Lt{"exam_no": examNo}).
		OrderBy("exam_no DESC").
		Limit(uint64(limit)))
}

// CountUsers returns the number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return n, nil
}

func (s *Store) getUser(ctx context.Context, b sq.SelectBuilder) (*User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

func (s *Store) listUsers(ctx context.Context, b sq.SelectBuilder) ([]User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var u User
	var studentID sql.NullString

	if err := row.Scan(&u.ID, &u.Name, &u.Role, &u.ExamNo, &studentID); err != nil {
		return nil, err
	}
	u.StudentID = studentID.String

	return &u, nil
}
