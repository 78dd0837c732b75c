package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
)

func TestCourseAPI(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	adminToken := deps.getToken(t, admin, adminDet)
	studentToken := deps.getToken(t, student, studentDet)

	rec := deps.request(t, http.MethodPost, "/course/register", adminToken, school.NewCourse{Name: "Computer Science"})
	checkCode(t, rec, http.StatusCreated)

	var course school.Course
	decodeBody(t, rec, &course)
	assert.Equal(t, "Computer Science", course.Name)

	// attach a module and an enrolled student to the course
	mod, err := deps.svc.CreateModule(context.Background(), school.NewModule{Name: "Databases", CourseID: course.ID})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	assert.Equal(t, null.IntFrom(course.ID), mod.CourseID)

	enrolled := school.User{Username: "enrolled", CourseID: null.IntFrom(course.ID)}
	if err = enrolled.SetPassword("pw"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if _, _, err = deps.repo.CreateUserWithDetail(context.Background(), enrolled, school.UserDetail{
		Fullname:            "En Rolled",
		MatriculationNumber: "777",
		Mail:                "enrolled@test.cd",
	}); err != nil {
		t.Fatalf("CreateUserWithDetail() failed: %v", err)
	}

	t.Run("any account can read a course", func(t *testing.T) {
		rec := deps.request(t, http.MethodGet, fmt.Sprintf("/course/%d", course.ID), studentToken, nil)
		checkCode(t, rec, http.StatusOK)

		var got courseResponse
		decodeBody(t, rec, &got)
		assert.Equal(t, course.Name, got.Name)
		if assert.Len(t, got.Modules, 1) {
			assert.Equal(t, mod.Name, got.Modules[0].Name)
		}
		if assert.Len(t, got.Students, 1) {
			assert.Equal(t, "enrolled", got.Students[0].Username)
		}
	})

	t.Run("mutation is admin only", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/course/register", studentToken, school.NewCourse{Name: "Sneaky"})
		checkCode(t, rec, http.StatusForbidden)
		rec = deps.request(t, http.MethodPost, "/course/delete", studentToken, school.DeleteCourse{ID: course.ID})
		checkCode(t, rec, http.StatusForbidden)
	})

	t.Run("delete", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/course/delete", adminToken, school.DeleteCourse{ID: course.ID})
		checkCode(t, rec, http.StatusNoContent)
		rec = deps.request(t, http.MethodGet, fmt.Sprintf("/course/%d", course.ID), adminToken, nil)
		checkCode(t, rec, http.StatusNotFound)
	})
}
