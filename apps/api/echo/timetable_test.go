package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
)

func TestTimetableAPI(t *testing.T) {
	deps := setup(t)
	admin, adminDet := deps.createUser(t, "root", "Root Admin", "pw", auth.RoleAdministrator)
	student, studentDet := deps.createUser(t, "jdoe", "John Doe", "pw", auth.RoleStudent)
	mod := deps.createModule(t, "Databases")
	adminToken := deps.getToken(t, admin, adminDet)
	studentToken := deps.getToken(t, student, studentDet)

	start := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := school.NewTimetableEntry{
		StartTime:   start,
		EndTime:     start.Add(90 * time.Minute),
		ModuleID:    mod.ID,
		Description: "lecture",
		Room:        "A1",
	}

	t.Run("insert is admin only", func(t *testing.T) {
		rec := deps.request(t, http.MethodPost, "/timetable/insert", studentToken, entry)
		checkCode(t, rec, http.StatusForbidden)

		rec = deps.request(t, http.MethodPost, "/timetable/insert", adminToken, entry)
		checkCode(t, rec, http.StatusCreated)
	})

	t.Run("insert refuses an unknown module", func(t *testing.T) {
		bad := entry
		bad.ModuleID = 999
		rec := deps.request(t, http.MethodPost, "/timetable/insert", adminToken, bad)
		checkCode(t, rec, http.StatusNotFound)
	})

	t.Run("any account can read the timetable", func(t *testing.T) {
		rec := deps.request(t, http.MethodGet, "/timetable", studentToken, nil)
		checkCode(t, rec, http.StatusOK)

		var entries []school.TimetableEntry
		decodeBody(t, rec, &entries)
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "A1", entries[0].Room)
			assert.True(t, entries[0].StartTime.Equal(start))
		}
	})

	t.Run("delete", func(t *testing.T) {
		var entries []school.TimetableEntry
		rec := deps.request(t, http.MethodGet, "/timetable", adminToken, nil)
		checkCode(t, rec, http.StatusOK)
		decodeBody(t, rec, &entries)

		rec = deps.request(t, http.MethodPost, "/timetable/delete", adminToken,
			school.DeleteTimetableEntry{ID: entries[0].ID})
		checkCode(t, rec, http.StatusNoContent)

		rec = deps.request(t, http.MethodGet, "/timetable", adminToken, nil)
		decodeBody(t, rec, &entries)
		assert.Empty(t, entries)
	})
}
