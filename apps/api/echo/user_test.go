package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
)

func TestUserRegisterAndDelete(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	adminToken := deps.getToken(t, admin, adminDet)

	body := school.RegisterUser{
		Username:            "jdoe",
		Password:            "v3ry-s3cret",
		Role:                auth.RoleStudent,
		Fullname:            "John Doe",
		MatriculationNumber: "12345",
		Mail:                "jdoe@test.cd",
	}

	rec := deps.request(t, http.MethodPost, "/user/register", adminToken, body)
	checkCode(t, rec, http.StatusCreated)

	// account and profile both exist
	assert.Equal(t, 2, deps.db.CountUsers())
	assert.Equal(t, 2, deps.db.CountUserDetails())

	rec = deps.request(t, http.MethodPost, "/user/delete", adminToken, school.DeleteUser{Username: "jdoe"})
	checkCode(t, rec, http.StatusNoContent)

	// both rows are gone
	assert.Equal(t, 1, deps.db.CountUsers())
	assert.Equal(t, 1, deps.db.CountUserDetails())
}

func TestUserRegisterRequiresAdmin(t *testing.T) {
	deps := setup(t)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	studentToken := deps.getToken(t, student, studentDet)

	body := school.RegisterUser{
		Username:            "intruder",
		Password:            "v3ry-s3cret",
		Fullname:            "In Truder",
		MatriculationNumber: "666",
		Mail:                "intruder@test.cd",
	}

	rec := deps.request(t, http.MethodPost, "/user/register", studentToken, body)
	checkCode(t, rec, http.StatusForbidden)
	assert.Equal(t, 1, deps.db.CountUsers())
}

func TestUserLogin(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)

	t.Run("valid credentials", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/user/login", "", school.LoginUser{Username: "root", Password: "pw"})
		checkCode(t, rec, http.StatusOK)

		var resp loginResponse
		decodeBody(t, rec, &resp)

		sess, err := deps.tokenSvc.Verify(resp.Token)
		if err != nil {
			t.Fatalf("Verify() failed: %v", err)
		}
		assert.Equal(t, admin.ID, sess.ID)
		assert.Equal(t, adminDet.Fullname, sess.FullName)
		assert.Equal(t, auth.RoleAdministrator, sess.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/user/login", "", school.LoginUser{Username: "root", Password: "nope"})
		checkCode(t, rec, http.StatusForbidden)
		assert.Equal(t, "Wrong username or password", rec.Body.String())
	})

	t.Run("unknown username", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/user/login", "", school.LoginUser{Username: "ghost", Password: "pw"})
		checkCode(t, rec, http.StatusForbidden)
		assert.Equal(t, "Wrong username or password", rec.Body.String())
	})
}

func TestUserRoutesRequireJWT(t *testing.T) {
	deps := setup(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "this.is.not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := deps.request(t, http.MethodPost, "/user/delete", tt.token, school.DeleteUser{Username: "x"})
			checkCode(t, rec, http.StatusUnauthorized)
			assert.Equal(t, "Invalid JWT", rec.Body.String())
		})
	}
}

func TestUserDeleteOwnAccountOnly(t *testing.T) {
	deps := setup(t)
	deps.createUser(t, "victim", "Vic Tim", "pw", auth.RoleStudent)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	studentToken := deps.getToken(t, student, studentDet)

	rec := deps.request(t, http.MethodPost, "/user/delete", studentToken, school.DeleteUser{Username: "victim"})
	checkCode(t, rec, http.StatusForbidden)
	assert.Equal(t, 2, deps.db.CountUsers())

	rec = deps.request(t, http.MethodPost, "/user/delete", studentToken, school.DeleteUser{Username: "jdoe"})
	checkCode(t, rec, http.StatusNoContent)
	assert.Equal(t, 1, deps.db.CountUsers())
}

func TestUserChangePassword(t *testing.T) {
	deps := setup(t)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "0ld-s3cret", auth.RoleStudent)
	studentToken := deps.getToken(t, student, studentDet)

	rec := deps.request(t, http.MethodPost, "/user/changePassword", studentToken,
		school.ChangePassword{Username: "jdoe", Password: "n3w-s3cret"})
	checkCode(t, rec, http.StatusNoContent)

	// old password no longer works, new one does
	rec = deps.request(t, http.MethodPost, "/user/login", "", school.LoginUser{Username: "jdoe", Password: "0ld-s3cret"})
	checkCode(t, rec, http.StatusForbidden)
	rec = deps.request(t, http.MethodPost, "/user/login", "", school.LoginUser{Username: "jdoe", Password: "n3w-s3cret"})
	checkCode(t, rec, http.StatusOK)

	// not someone else's password though
	other, otherDet := deps.createUser(t, "other", "Other One", "pw", auth.RoleStudent)
	otherToken := deps.getToken(t, other, otherDet)
	rec = deps.request(t, http.MethodPost, "/user/changePassword", otherToken,
		school.ChangePassword{Username: "jdoe", Password: "h4cked-pwd"})
	checkCode(t, rec, http.StatusForbidden)
}
