package models

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&TaskComment{},
		&File{},
		&Event{},
		&EventAttendee{},
		&UserSetting{},
	}
}
