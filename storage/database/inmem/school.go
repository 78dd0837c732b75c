// Package inmemdb backs school.Repository with plain maps. It exists for
// tests and local tinkering; it enforces the same uniqueness and atomicity
// guarantees as the SQL repository.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/school"
)

type DB struct {
	mutex sync.RWMutex
	seq   int

	users       map[int]*school.User
	details     map[int]*school.UserDetail
	courses     map[int]*school.Course
	modules     map[int]*school.Module
	assignments map[int]*school.ModuleTeacher
	items       map[int]*school.ModuleItem
	files       map[int]*school.File
	grades      map[int]*school.Grade
	timetable   map[int]*school.TimetableEntry
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*school.User),
		details:     make(map[int]*school.UserDetail),
		courses:     make(map[int]*school.Course),
		modules:     make(map[int]*school.Module),
		assignments: make(map[int]*school.ModuleTeacher),
		items:       make(map[int]*school.ModuleItem),
		files:       make(map[int]*school.File),
		grades:      make(map[int]*school.Grade),
		timetable:   make(map[int]*school.TimetableEntry),
	}
	return db, nil
}

func (db *DB) nextID() int {
	db.seq++
	return db.seq
}

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateUserWithDetail(
	_ context.Context, usr school.User, det school.UserDetail,
) (school.User, school.UserDetail, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.users {
		if existing.Username == usr.Username {
			return school.User{}, school.UserDetail{}, school.ErrUserExists
		}
	}
	for _, existing := range repo.db.details {
		if existing.MatriculationNumber == det.MatriculationNumber || existing.Mail == det.Mail {
			return school.User{}, school.UserDetail{}, school.ErrUserExists
		}
	}

	usr.ID = repo.db.nextID()
	det.ID = repo.db.nextID()
	det.UserID = usr.ID
	repo.db.users[usr.ID] = &usr
	repo.db.details[det.ID] = &det
	return usr, det, nil
}

func (repo *schoolRepository) GetUserByUsername(_ context.Context, username string) (school.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return *usr, nil
		}
	}
	return school.User{}, core.ErrNotFound
}

func (repo *schoolRepository) GetUserByID(_ context.Context, id int) (school.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return school.User{}, core.ErrNotFound
}

func (repo *schoolRepository) GetUserDetail(_ context.Context, userID int) (school.UserDetail, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, det := range repo.db.details {
		if det.UserID == userID {
			return *det, nil
		}
	}
	return school.UserDetail{}, core.ErrNotFound
}

func (repo *schoolRepository) UpdateUserPassword(_ context.Context, userID int, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	usr.PasswordHash = hash
	return nil
}

func (repo *schoolRepository) DeleteUserWithDetail(_ context.Context, userID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[userID]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.users, userID)
	for id, det := range repo.db.details {
		if det.UserID == userID {
			delete(repo.db.details, id)
		}
	}
	for id, mt := range repo.db.assignments {
		if mt.UserID == userID {
			delete(repo.db.assignments, id)
		}
	}
	for id, grd := range repo.db.grades {
		if grd.StudentID == userID {
			delete(repo.db.grades, id)
		}
	}
	for id, f := range repo.db.files {
		if f.OwnerID == userID {
			delete(repo.db.files, id)
		}
	}
	return nil
}

// CountUsers reports how many account rows exist; test helper.
func (db *DB) CountUsers() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.users)
}

// CountUserDetails reports how many profile rows exist; test helper.
func (db *DB) CountUserDetails() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.details)
}

func (repo *schoolRepository) CreateModule(_ context.Context, mod school.Module, teacherIDs []int) (school.Module, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	mod.ID = repo.db.nextID()
	repo.db.modules[mod.ID] = &mod
	for _, teacherID := range teacherIDs {
		mt := &school.ModuleTeacher{ID: repo.db.nextID(), ModuleID: mod.ID, UserID: teacherID}
		repo.db.assignments[mt.ID] = mt
	}
	return mod, nil
}

func (repo *schoolRepository) GetModule(_ context.Context, id int) (school.Module, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return school.Module{}, core.ErrNotFound
}

func (repo *schoolRepository) GetModuleTeachers(_ context.Context, moduleID int) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if _, ok := repo.db.modules[moduleID]; !ok {
		return nil, core.ErrNotFound
	}
	teacherIDs := make([]int, 0)
	for _, mt := range repo.db.assignments {
		if mt.ModuleID == moduleID {
			teacherIDs = append(teacherIDs, mt.UserID)
		}
	}
	sort.Ints(teacherIDs)
	return teacherIDs, nil
}

func (repo *schoolRepository) AddModuleTeacher(_ context.Context, moduleID, userID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, mt := range repo.db.assignments {
		if mt.ModuleID == moduleID && mt.UserID == userID {
			return nil // already assigned
		}
	}
	mt := &school.ModuleTeacher{ID: repo.db.nextID(), ModuleID: moduleID, UserID: userID}
	repo.db.assignments[mt.ID] = mt
	return nil
}

func (repo *schoolRepository) DeleteModule(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.modules[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.modules, id)
	for mtID, mt := range repo.db.assignments {
		if mt.ModuleID == id {
			delete(repo.db.assignments, mtID)
		}
	}
	for itemID, item := range repo.db.items {
		if item.ModuleID == id {
			delete(repo.db.items, itemID)
		}
	}
	for gradeID, grd := range repo.db.grades {
		if grd.ModuleID == id {
			delete(repo.db.grades, gradeID)
		}
	}
	for entryID, entry := range repo.db.timetable {
		if entry.ModuleID == id {
			delete(repo.db.timetable, entryID)
		}
	}
	return nil
}

func (repo *schoolRepository) CreateModuleItemWithFile(
	_ context.Context, item school.ModuleItem, file *school.File,
) (school.ModuleItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = repo.db.nextID()
	repo.db.items[item.ID] = &item
	if file != nil {
		f := *file
		f.ID = repo.db.nextID()
		f.ModuleItemID.SetValid(item.ID)
		repo.db.files[f.ID] = &f
	}
	return item, nil
}

func (repo *schoolRepository) SaveGrade(_ context.Context, grade school.Grade) (school.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.grades {
		if existing.ModuleID == grade.ModuleID && existing.StudentID == grade.StudentID {
			existing.Grade = grade.Grade
			existing.Weight = grade.Weight
			return *existing, nil
		}
	}
	grade.ID = repo.db.nextID()
	repo.db.grades[grade.ID] = &grade
	return grade, nil
}

func (repo *schoolRepository) QueryGradesForStudent(_ context.Context, studentID int) ([]school.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]school.Grade, 0)
	for _, grd := range repo.db.grades {
		if grd.StudentID == studentID {
			grades = append(grades, *grd)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ModuleID < grades[j].ModuleID })
	return grades, nil
}

func (repo *schoolRepository) QueryGradesForModule(_ context.Context, moduleID int) ([]school.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]school.Grade, 0)
	for _, grd := range repo.db.grades {
		if grd.ModuleID == moduleID {
			grades = append(grades, *grd)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].StudentID < grades[j].StudentID })
	return grades, nil
}

func (repo *schoolRepository) DeleteGrade(_ context.Context, moduleID, studentID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, grd := range repo.db.grades {
		if grd.ModuleID == moduleID && grd.StudentID == studentID {
			delete(repo.db.grades, id)
			return nil
		}
	}
	return core.ErrNotFound
}

func (repo *schoolRepository) CreateCourse(_ context.Context, course school.Course) (school.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	course.ID = repo.db.nextID()
	repo.db.courses[course.ID] = &course
	return course, nil
}

func (repo *schoolRepository) GetCourse(_ context.Context, id int) (school.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if course, ok := repo.db.courses[id]; ok {
		return *course, nil
	}
	return school.Course{}, core.ErrNotFound
}

func (repo *schoolRepository) QueryCourseModules(_ context.Context, courseID int) ([]school.Module, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	modules := make([]school.Module, 0)
	for _, mod := range repo.db.modules {
		if mod.CourseID.Valid && mod.CourseID.Int == courseID {
			modules = append(modules, *mod)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}

func (repo *schoolRepository) QueryCourseStudents(_ context.Context, courseID int) ([]school.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]school.User, 0)
	for _, usr := range repo.db.users {
		if usr.CourseID.Valid && usr.CourseID.Int == courseID {
			students = append(students, *usr)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Username < students[j].Username })
	return students, nil
}

func (repo *schoolRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.courses, id)
	for _, mod := range repo.db.modules {
		if mod.CourseID.Valid && mod.CourseID.Int == id {
			mod.CourseID.Valid = false
		}
	}
	for _, usr := range repo.db.users {
		if usr.CourseID.Valid && usr.CourseID.Int == id {
			usr.CourseID.Valid = false
		}
	}
	return nil
}

func (repo *schoolRepository) QueryTimetable(_ context.Context) ([]school.TimetableEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]school.TimetableEntry, 0, len(repo.db.timetable))
	for _, entry := range repo.db.timetable {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StartTime.Before(entries[j].StartTime) })
	return entries, nil
}

func (repo *schoolRepository) SaveTimetableEntry(_ context.Context, entry school.TimetableEntry) (school.TimetableEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if entry.ID == 0 {
		entry.ID = repo.db.nextID()
	}
	repo.db.timetable[entry.ID] = &entry
	return entry, nil
}

func (repo *schoolRepository) DeleteTimetableEntry(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.timetable[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.timetable, id)
	return nil
}
