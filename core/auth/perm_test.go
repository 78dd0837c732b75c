package auth

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core"
)

type stubResolver struct {
	teachers map[int][]int
	err      error
}

func (r stubResolver) TeachersOfModule(_ context.Context, moduleID int) ([]int, error) {
	if r.err != nil {
		return nil, r.err
	}
	ids, ok := r.teachers[moduleID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return ids, nil
}

var (
	admin   = Session{ID: 1, Username: "root", Role: RoleAdministrator}
	teacher = Session{ID: 2, Username: "t1", Role: RoleTeacher}
	student = Session{ID: 3, Username: "jdoe", Role: RoleStudent}
)

func TestAdminPassesAllGates(t *testing.T) {
	ctx := context.Background()
	resolver := stubResolver{teachers: map[int][]int{}} // admin is nobody's teacher

	if !AdminOnly(admin) {
		t.Error("AdminOnly(admin) = false")
	}
	if !AdminOrOwnUsername(admin, "somebody-else") {
		t.Error("AdminOrOwnUsername(admin, other) = false")
	}
	if !AdminOrOwnID(admin, 999) {
		t.Error("AdminOrOwnID(admin, other) = false")
	}
	if !AdminOrModuleTeacher(ctx, resolver, admin, 404) {
		t.Error("AdminOrModuleTeacher(admin, unknown module) = false")
	}
}

func TestAdminOrOwnUsername(t *testing.T) {
	tests := []struct {
		name     string
		session  Session
		username string
		want     bool
	}{
		{name: "own username", session: student, username: "jdoe", want: true},
		{name: "other username", session: student, username: "t1", want: false},
		{name: "empty username", session: student, username: "", want: false},
		{name: "teacher own username", session: teacher, username: "t1", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdminOrOwnUsername(tt.session, tt.username); got != tt.want {
				t.Errorf("AdminOrOwnUsername() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminOrOwnID(t *testing.T) {
	if !AdminOrOwnID(student, 3) {
		t.Error("AdminOrOwnID(student, own id) = false")
	}
	if AdminOrOwnID(student, 2) {
		t.Error("AdminOrOwnID(student, other id) = true")
	}
}

func TestAdminOrModuleTeacher(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		resolver ModuleTeacherResolver
		session  Session
		moduleID int
		want     bool
	}{
		{
			name:     "assigned teacher",
			resolver: stubResolver{teachers: map[int][]int{10: {2, 5}}},
			session:  teacher,
			moduleID: 10,
			want:     true,
		},
		{
			name:     "unassigned teacher",
			resolver: stubResolver{teachers: map[int][]int{10: {5}}},
			session:  teacher,
			moduleID: 10,
			want:     false,
		},
		{
			name:     "module does not exist: fails closed",
			resolver: stubResolver{teachers: map[int][]int{}},
			session:  teacher,
			moduleID: 404,
			want:     false,
		},
		{
			name:     "storage error: fails closed",
			resolver: stubResolver{err: errors.New("connection reset")},
			session:  teacher,
			moduleID: 10,
			want:     false,
		},
		{
			name:     "membership is by id, not role",
			resolver: stubResolver{teachers: map[int][]int{10: {3}}},
			session:  student,
			moduleID: 10,
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdminOrModuleTeacher(ctx, tt.resolver, tt.session, tt.moduleID); got != tt.want {
				t.Errorf("AdminOrModuleTeacher() = %v, want %v", got, tt.want)
			}
		})
	}
}
