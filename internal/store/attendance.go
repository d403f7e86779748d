package store

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
)

// AttendanceFor returns the attendance rows of a user in insertion order.
func (s *Store) AttendanceFor(ctx context.Context, userID int64) ([]Attendance, error) {
	query, args, err := s.sb.Select("id", "subject", "percentage", "user_id").
		From("attendance").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.Subject, &a.Percentage, &a.UserID); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}

	return records, rows.Err()
}

// InsertEnrollments inserts every user and its attendance in one transaction.
// Any failure rolls back the whole batch.
func (s *Store) InsertEnrollments(ctx context.Context, enrollments []Enrollment) (err error) {
	if len(enrollments) == 0 {
		return ErrNoRecordsToInsert
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("Rollback failed", "error", rbErr)
			}
		}
	}()

	for _, e := range enrollments {
		var studentID any
		if e.User.StudentID != "" {
			studentID = e.User.StudentID
		}

		query, args, err := s.sb.Insert("users").
			Columns(userColumns...).
			Values(e.User.ID, e.User.Name, e.User.Role, e.User.ExamNo, studentID).
			ToSql()
		if err != nil {
			return fmt.Errorf("build user insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert user %s: %w", e.User.ExamNo, err)
		}

		if len(e.Attendance) == 0 {
			continue
		}

		ins := s.sb.Insert("attendance").Columns("subject", "percentage", "user_id")
		for _, a := range e.Attendance {
			ins = ins.Values(a.Subject, a.Percentage, e.User.ID)
		}

		query, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build attendance insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert attendance for %s: %w", e.User.ExamNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
