package student

import "context"

// Repository defines persistence operations for students.
type Repository interface {
	// Create persists a new student.
	Create(ctx context.Context, s *Student) error

	// GetByID returns a student by internal ID.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByUserID returns the student owned by an authentication principal.
	GetByUserID(ctx context.Context, userID string) (*Student, error)

	// GetByStudentNo returns a student by registrar number.
	GetByStudentNo(ctx context.Context, no StudentNo) (*Student, error)

	// Update persists changes to an existing student.
	Update(ctx context.Context, s *Student) error
}
