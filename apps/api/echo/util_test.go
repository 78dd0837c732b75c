package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
	emailsvc "github.com/trezcool/noodle/services/email"
	inmemdb "github.com/trezcool/noodle/storage/database/inmem"
)

type testDeps struct {
	server   *Server
	db       *inmemdb.DB
	repo     school.Repository
	svc      *school.Service
	tokenSvc *auth.TokenService
}

// nopLogger drops everything; server errors under test surface via responses.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) testDeps {
	t.Helper()

	conf := &core.Config{
		Env:                "TEST",
		AppName:            "Noodle",
		TestMode:           true,
		SecretKey:          []byte("secret"),
		JWTExpirationDelta: 12 * time.Hour,
		DefaultFromEmail:   "noreply@localhost",
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewSchoolRepository(db)
	tokenSvc := auth.NewTokenService(conf.SecretKey, conf.JWTExpirationDelta)
	svc := school.NewService(repo, tokenSvc, emailsvc.NewConsoleServiceMock(conf), conf)

	server := NewServer(ServerDeps{
		Conf:      conf,
		Logger:    nopLogger{},
		TokenSvc:  tokenSvc,
		SchoolSvc: svc,
	})
	return testDeps{server: server, db: db, repo: repo, svc: svc, tokenSvc: tokenSvc}
}

func (d testDeps) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, echoMIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	d.server.ServeHTTP(rec, req)
	return rec
}

const (
	echoHeaderContentType   = "Content-Type"
	echoMIMEApplicationJSON = "application/json"
)

// createUser seeds an account + profile straight through the repository.
func (d testDeps) createUser(t *testing.T, username, fullname, pwd, role string) (school.User, school.UserDetail) {
	t.Helper()

	usr := school.User{
		Username:        username,
		IsTeacher:       role == auth.RoleTeacher,
		IsAdministrator: role == auth.RoleAdministrator,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	det := school.UserDetail{
		Fullname:            fullname,
		MatriculationNumber: "mat-" + username,
		Mail:                username + "@test.cd",
	}
	usr, det, err := d.repo.CreateUserWithDetail(context.Background(), usr, det)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr, det
}

func (d testDeps) getToken(t *testing.T, usr school.User, det school.UserDetail) string {
	t.Helper()

	token, err := d.tokenSvc.Issue(usr.ID, usr.Username, det.Fullname, usr.Role())
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()

	if rec.Code != want {
		t.Fatalf("code = %d; want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
