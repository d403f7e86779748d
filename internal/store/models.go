package store

// User is a student row.
type User struct {
	ID        int64
	Name      string
	Role      string
	ExamNo    string
	StudentID string // empty when unknown
}

// Attendance is one subject's attendance for a user.
type Attendance struct {
	ID         int64
	Subject    string
	Percentage float64
	UserID     int64
}

// Enrollment is a user together with the attendance rows inserted with it.
type Enrollment struct {
	User       User
	Attendance []Attendance
}
