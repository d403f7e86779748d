package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ekisa-team/campus-assistant/internal/store"
)

// describe answers according to what the question asks about the student.
func (r *Router) describe(ctx context.Context, q Query, u *store.User) (string, bool, error) {
	switch {
	case strings.Contains(q.Lower, "attendance"):
		records, err := r.dir.AttendanceFor(ctx, u.ID)
		if err != nil {
			return "", false, err
		}
		return formatAttendance(u, records), true, nil

	case strings.Contains(q.Lower, "student id"):
		if u.StudentID == "" {
			return fmt.Sprintf("I don't have a Student ID on file for %s.", u.Name), true, nil
		}
		return fmt.Sprintf("The student ID for %s is %s.", u.Name, u.StudentID), true, nil

	case strings.Contains(q.Lower, "exam no"), strings.Contains(q.Lower, "exam number"):
		return fmt.Sprintf("The exam number for %s is %s.", u.Name, u.ExamNo), true, nil

	default:
		return fmt.Sprintf(
			"I found a student: %s (Exam No: %s). What would you like to know about them? (e.g., 'What is their attendance?')",
			u.Name, u.ExamNo,
		), true, nil
	}
}

func formatAttendance(u *store.User, records []store.Attendance) string {
	if len(records) == 0 {
		return fmt.Sprintf("I couldn't find any attendance records for %s.", u.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Certainly! Here is the attendance for %s:", u.Name)
	for _, a := range records {
		fmt.Fprintf(&sb, "\n- %s: %s%%", a.Subject, FormatPercentage(a.Percentage))
	}

	return sb.String()
}

func formatNeighbours(direction string, anchor *store.User, users []store.User) string {
	if len(users) == 0 {
		return fmt.Sprintf("I couldn't find any students %s %s (%s).", direction, anchor.Name, anchor.ExamNo)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the students %s %s (%s):", direction, anchor.Name, anchor.ExamNo)
	for _, u := range users {
		fmt.Fprintf(&sb, "\n- %s (%s)", u.Name, u.ExamNo)
	}

	return sb.String()
}

// FormatPercentage prints the shortest exact form, always with a decimal
// point: 85 -> "85.0", 92.35 -> "92.35".
func FormatPercentage(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
