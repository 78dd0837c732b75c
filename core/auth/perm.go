package auth

import "context"

// ModuleTeacherResolver answers "who teaches module M".
// It fails with core.ErrNotFound when the module id does not exist.
type ModuleTeacherResolver interface {
	TeachersOfModule(ctx context.Context, moduleID int) ([]int, error)
}

// Decision rules. Each is evaluated exactly once per request, before any
// mutation, and never mutates state itself.

func IsAdministrator(s Session) bool {
	return s.IsAdministrator()
}

func IsOwnUsername(s Session, username string) bool {
	return s.Username == username
}

func IsOwnID(s Session, id int) bool {
	return s.ID == id
}

// IsModuleTeacher reports whether the session's principal is assigned as a
// teacher of the given module. Membership is checked by id. Any resolver
// failure (module not found, storage error) denies: fail closed.
func IsModuleTeacher(ctx context.Context, resolver ModuleTeacherResolver, s Session, moduleID int) bool {
	teacherIDs, err := resolver.TeachersOfModule(ctx, moduleID)
	if err != nil {
		return false
	}
	for _, id := range teacherIDs {
		if id == s.ID {
			return true
		}
	}
	return false
}

// Composite gates used by handlers; an administrator passes all of them.

func AdminOnly(s Session) bool {
	return IsAdministrator(s)
}

func AdminOrOwnUsername(s Session, username string) bool {
	return IsAdministrator(s) || IsOwnUsername(s, username)
}

func AdminOrOwnID(s Session, id int) bool {
	return IsAdministrator(s) || IsOwnID(s, id)
}

func AdminOrModuleTeacher(ctx context.Context, resolver ModuleTeacherResolver, s Session, moduleID int) bool {
	return IsAdministrator(s) || IsModuleTeacher(ctx, resolver, s, moduleID)
}
