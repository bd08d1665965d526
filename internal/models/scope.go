package models

// Scope is the set of sections and enrollments an actor may see.
type Scope struct {
	Role          UserRole `json:"role"`
	All           bool     `json:"all"`
	SectionIDs    []string `json:"section_ids,omitempty"`
	EnrollmentIDs []string `json:"enrollment_ids,omitempty"`
}

// HasSection reports whether the section is visible.
func (s Scope) HasSection(sectionID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.SectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

// HasEnrollment reports whether the enrollment is visible.
func (s Scope) HasEnrollment(enrollmentID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.EnrollmentIDs {
		if id == enrollmentID {
			return true
		}
	}
	return false
}

// CanWrite reports whether the role records attendance and grades at all.
func (s Scope) CanWrite() bool {
	switch s.Role {
	case RoleAdmin, RoleStaff, RoleTeacher:
		return true
	default:
		return false
	}
}
