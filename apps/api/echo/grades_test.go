package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
)

func (d testDeps) createModule(t *testing.T, name string, teacherIDs ...int) school.ModuleWithTeachers {
	t.Helper()

	mod, err := d.svc.CreateModule(context.Background(), school.NewModule{Name: name, TeacherIDs: teacherIDs})
	if err != nil {
		t.Fatalf("createModule() failed: %v", err)
	}
	return mod
}

func TestGradeInsertRequiresModuleTeacher(t *testing.T) {
	deps := setup(t)
	teacher, teacherDet := deps.createUser(t, "teach", "Tea Cher", "pw", auth.RoleTeacher)
	student, _ := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases")

	teacherToken := deps.getToken(t, teacher, teacherDet)
	path := fmt.Sprintf("/grades/insert/%d", mod.ID)
	body := school.NewGrade{StudentID: student.ID, Grade: 80, Weight: 1}

	// not assigned to the module yet
	rec := deps.request(t, http.MethodPost, path, teacherToken, body)
	checkCode(t, rec, http.StatusForbidden)

	if err := deps.svc.AddModuleTeacher(context.Background(), mod.ID, teacher.ID); err != nil {
		t.Fatalf("AddModuleTeacher() failed: %v", err)
	}

	// same request, now assigned
	rec = deps.request(t, http.MethodPost, path, teacherToken, body)
	checkCode(t, rec, http.StatusCreated)

	var grade school.Grade
	decodeBody(t, rec, &grade)
	assert.Equal(t, mod.ID, grade.ModuleID)
	assert.Equal(t, student.ID, grade.StudentID)
	assert.Equal(t, 80, grade.Grade)
}

func TestGradeInsertModuleIDMismatch(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	student, _ := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases")
	adminToken := deps.getToken(t, admin, adminDet)

	// body claims a different module than the route
	body := school.NewGrade{ModuleID: mod.ID + 1, StudentID: student.ID, Grade: 50, Weight: 1}
	rec := deps.request(t, http.MethodPost, fmt.Sprintf("/grades/insert/%d", mod.ID), adminToken, body)
	checkCode(t, rec, http.StatusBadRequest)

	grades, err := deps.svc.GradesForStudent(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GradesForStudent() failed: %v", err)
	}
	assert.Empty(t, grades)
}

func TestGradeInsertUpserts(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	student, _ := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases")
	adminToken := deps.getToken(t, admin, adminDet)
	path := fmt.Sprintf("/grades/insert/%d", mod.ID)

	rec := deps.request(t, http.MethodPost, path, adminToken, school.NewGrade{StudentID: student.ID, Grade: 50, Weight: 1})
	checkCode(t, rec, http.StatusCreated)
	rec = deps.request(t, http.MethodPost, path, adminToken, school.NewGrade{StudentID: student.ID, Grade: 90, Weight: 2})
	checkCode(t, rec, http.StatusCreated)

	grades, err := deps.svc.GradesForStudent(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GradesForStudent() failed: %v", err)
	}
	if assert.Len(t, grades, 1) {
		assert.Equal(t, 90, grades[0].Grade)
		assert.Equal(t, 2, grades[0].Weight)
	}
}

func TestGradesForStudentGate(t *testing.T) {
	deps := setup(t)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	other, otherDet := deps.createUser(t, "other", "Other One", "pw", auth.RoleStudent)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{name: "own grades", token: deps.getToken(t, student, studentDet), wantCode: http.StatusOK},
		{name: "someone else's grades", token: deps.getToken(t, other, otherDet), wantCode: http.StatusForbidden},
		{name: "admin", token: deps.getToken(t, admin, adminDet), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := deps.request(t, http.MethodGet, fmt.Sprintf("/grades/%d", student.ID), tt.token, nil)
			checkCode(t, rec, tt.wantCode)
		})
	}
}

func TestGradesForModule(t *testing.T) {
	deps := setup(t)
	teacher, teacherDet := deps.createUser(t, "teach", "Tea Cher", "pw", auth.RoleTeacher)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases", teacher.ID)
	teacherToken := deps.getToken(t, teacher, teacherDet)

	if _, err := deps.svc.InsertGrade(context.Background(), school.NewGrade{
		ModuleID: mod.ID, StudentID: student.ID, Grade: 70, Weight: 1,
	}); err != nil {
		t.Fatalf("InsertGrade() failed: %v", err)
	}

	rec := deps.request(t, http.MethodGet, fmt.Sprintf("/grades/module/%d", mod.ID), teacherToken, nil)
	checkCode(t, rec, http.StatusOK)

	var grades []school.StudentGrade
	decodeBody(t, rec, &grades)
	if assert.Len(t, grades, 1) {
		assert.Equal(t, studentDet.Fullname, grades[0].Fullname)
		assert.Equal(t, studentDet.MatriculationNumber, grades[0].MatriculationNumber)
		assert.Equal(t, 70, grades[0].Grade.Grade)
	}
}

func TestGradeDelete(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	student, _ := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases")
	adminToken := deps.getToken(t, admin, adminDet)

	if _, err := deps.svc.InsertGrade(context.Background(), school.NewGrade{
		ModuleID: mod.ID, StudentID: student.ID, Grade: 70, Weight: 1,
	}); err != nil {
		t.Fatalf("InsertGrade() failed: %v", err)
	}

	rec := deps.request(t, http.MethodPost, fmt.Sprintf("/grades/delete/%d", mod.ID), adminToken,
		school.DeleteGrade{StudentID: student.ID})
	checkCode(t, rec, http.StatusNoContent)

	// deleting again reports not found
	rec = deps.request(t, http.MethodPost, fmt.Sprintf("/grades/delete/%d", mod.ID), adminToken,
		school.DeleteGrade{StudentID: student.ID})
	checkCode(t, rec, http.StatusNotFound)
}
