package backend

// DateLayout is the format of the attendance date filter.
const DateLayout = "2006-01-02"

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

type Health struct {
	Status    string    `json:"status" yaml:"status"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
}

type User struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Email         string    `json:"email" yaml:"email"`
	Role          string    `json:"role" yaml:"role"`
	FingerprintID int       `json:"fingerprint_id,omitempty" yaml:"fingerprint_id,omitempty"`
	CreatedAt     Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at" yaml:"updated_at"`
}

type NewUser struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	FingerprintID int    `json:"fingerprint_id,omitempty"`
}

type CreateUserResult struct {
	Success bool   `json:"success" yaml:"success"`
	UserID  string `json:"user_id" yaml:"user_id"`
	Message string `json:"message" yaml:"message"`
}

type Course struct {
	ID          string    `json:"id" yaml:"id"`
	Code        string    `json:"code" yaml:"code"`
	Name        string    `json:"name" yaml:"name"`
	Schedule    string    `json:"schedule" yaml:"schedule"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at" yaml:"updated_at"`
}

type NewCourse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Schedule    string `json:"schedule"`
	Description string `json:"description"`
}

type CreateCourseResult struct {
	Success  bool   `json:"success" yaml:"success"`
	CourseID string `json:"course_id" yaml:"course_id"`
	Message  string `json:"message" yaml:"message"`
}

type AttendanceRecord struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	UserName   string    `json:"user_name,omitempty" yaml:"user_name,omitempty"`
	CourseID   string    `json:"course_id" yaml:"course_id"`
	CourseName string    `json:"course_name,omitempty" yaml:"course_name,omitempty"`
	CourseCode string    `json:"course_code,omitempty" yaml:"course_code,omitempty"`
	Status     string    `json:"status" yaml:"status"`
	Timestamp  Timestamp `json:"timestamp" yaml:"timestamp"`
	CreatedAt  Timestamp `json:"created_at" yaml:"created_at"`
}

// AttendanceFilter narrows ListAttendance. Empty fields are not sent.
type AttendanceFilter struct {
	Date     string
	CourseID string
}

type RecordAttendanceResult struct {
	Success    bool   `json:"success" yaml:"success"`
	Message    string `json:"message" yaml:"message"`
	UserName   string `json:"user_name" yaml:"user_name"`
	CourseName string `json:"course_name" yaml:"course_name"`
}

type Stats struct {
	UserCount        int `json:"user_count" yaml:"user_count"`
	CourseCount      int `json:"course_count" yaml:"course_count"`
	TodayAttendances int `json:"today_attendances" yaml:"today_attendances"`
}

type Activity struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Message   string    `json:"message" yaml:"message"`
	UserID    string    `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
}

type Dashboard struct {
	Stats      Stats      `json:"stats" yaml:"stats"`
	Activities []Activity `json:"activities" yaml:"activities"`
}
