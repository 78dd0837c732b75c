package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/school"
)

// SchoolRepository is the PostgreSQL-backed school.Repository.
type SchoolRepository struct {
	db core.DB
}

var _ school.Repository = (*SchoolRepository)(nil)

func NewSchoolRepository(db core.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (repo *SchoolRepository) CreateUserWithDetail(
	ctx context.Context, usr school.User, det school.UserDetail,
) (school.User, school.UserDetail, error) {
	// refuse duplicates up front for a friendlier error than the DB constraint
	_, err := FindOne[school.User](ctx, repo.db, By{"username": usr.Username})
	if err = existsErr(err); err != nil {
		return school.User{}, school.UserDetail{}, err
	}
	_, err = FindOne[school.UserDetail](ctx, repo.db, By{"matriculation_number": det.MatriculationNumber})
	if err = existsErr(err); err != nil {
		return school.User{}, school.UserDetail{}, err
	}
	_, err = FindOne[school.UserDetail](ctx, repo.db, By{"mail": det.Mail})
	if err = existsErr(err); err != nil {
		return school.User{}, school.UserDetail{}, err
	}

	err = SaveMany(ctx, repo.db, WriteSet{
		Put(&usr),
		PutLinked(&det, func() { det.UserID = usr.ID }),
	})
	if err != nil {
		return school.User{}, school.UserDetail{}, err
	}
	return usr, det, nil
}

// existsErr maps a uniqueness probe result: a hit means the value is taken.
func existsErr(err error) error {
	switch err {
	case nil:
		return school.ErrUserExists
	case core.ErrNotFound:
		return nil
	default:
		return err
	}
}

func (repo *SchoolRepository) GetUserByUsername(ctx context.Context, username string) (school.User, error) {
	return FindOne[school.User](ctx, repo.db, By{"username": username})
}

func (repo *SchoolRepository) GetUserByID(ctx context.Context, id int) (school.User, error) {
	return FindOne[school.User](ctx, repo.db, By{"id": id})
}

func (repo *SchoolRepository) GetUserDetail(ctx context.Context, userID int) (school.UserDetail, error) {
	return FindOne[school.UserDetail](ctx, repo.db, By{"user_id": userID})
}

func (repo *SchoolRepository) UpdateUserPassword(ctx context.Context, userID int, hash []byte) error {
	usr, err := FindOne[school.User](ctx, repo.db, By{"id": userID})
	if err != nil {
		return err
	}
	usr.PasswordHash = hash
	return SaveOne(ctx, repo.db, &usr)
}

// DeleteUserWithDetail removes the account and its profile together; dependent
// rows (assignments, grades, files) go away via ON DELETE CASCADE.
func (repo *SchoolRepository) DeleteUserWithDetail(ctx context.Context, userID int) error {
	if _, err := FindOne[school.User](ctx, repo.db, By{"id": userID}); err != nil {
		return err
	}
	return Atomically(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := DeleteMany[school.UserDetail](ctx, tx, By{"user_id": userID}); err != nil {
			return err
		}
		_, err := DeleteMany[school.User](ctx, tx, By{"id": userID})
		return err
	})
}

func (repo *SchoolRepository) CreateModule(ctx context.Context, mod school.Module, teacherIDs []int) (school.Module, error) {
	set := WriteSet{Put(&mod)}
	for _, teacherID := range teacherIDs {
		mt := &school.ModuleTeacher{UserID: teacherID}
		set = append(set, PutLinked(mt, func() { mt.ModuleID = mod.ID }))
	}
	if err := SaveMany(ctx, repo.db, set); err != nil {
		return school.Module{}, err
	}
	return mod, nil
}

func (repo *SchoolRepository) GetModule(ctx context.Context, id int) (school.Module, error) {
	return FindOne[school.Module](ctx, repo.db, By{"id": id})
}

func (repo *SchoolRepository) GetModuleTeachers(ctx context.Context, moduleID int) ([]int, error) {
	if _, err := FindOne[school.Module](ctx, repo.db, By{"id": moduleID}); err != nil {
		return nil, err
	}
	assignments, err := FindMany[school.ModuleTeacher](ctx, repo.db, By{"module_id": moduleID})
	if err != nil {
		return nil, err
	}
	teacherIDs := make([]int, 0, len(assignments))
	for _, mt := range assignments {
		teacherIDs = append(teacherIDs, mt.UserID)
	}
	return teacherIDs, nil
}

func (repo *SchoolRepository) AddModuleTeacher(ctx context.Context, moduleID, userID int) error {
	_, err := FindOne[school.ModuleTeacher](ctx, repo.db, By{"module_id": moduleID, "user_id": userID})
	switch err {
	case nil:
		return nil // already assigned
	case core.ErrNotFound:
	default:
		return err
	}
	return SaveOne(ctx, repo.db, &school.ModuleTeacher{ModuleID: moduleID, UserID: userID})
}

func (repo *SchoolRepository) DeleteModule(ctx context.Context, id int) error {
	return DeleteOne[school.Module](ctx, repo.db, By{"id": id})
}

func (repo *SchoolRepository) CreateModuleItemWithFile(
	ctx context.Context, item school.ModuleItem, file *school.File,
) (school.ModuleItem, error) {
	set := WriteSet{Put(&item)}
	if file != nil {
		set = append(set, PutLinked(file, func() { file.ModuleItemID = null.IntFrom(item.ID) }))
	}
	if err := SaveMany(ctx, repo.db, set); err != nil {
		return school.ModuleItem{}, err
	}
	return item, nil
}

// SaveGrade upserts the grade on the (module, student) pair.
func (repo *SchoolRepository) SaveGrade(ctx context.Context, grade school.Grade) (school.Grade, error) {
	existing, err := FindOne[school.Grade](ctx, repo.db, By{
		"module_id":  grade.ModuleID,
		"student_id": grade.StudentID,
	})
	switch err {
	case nil:
		grade.ID = existing.ID
	case core.ErrNotFound:
	default:
		return school.Grade{}, err
	}
	if err = SaveOne(ctx, repo.db, &grade); err != nil {
		return school.Grade{}, err
	}
	return grade, nil
}

func (repo *SchoolRepository) QueryGradesForStudent(ctx context.Context, studentID int) ([]school.Grade, error) {
	return FindMany[school.Grade](ctx, repo.db, By{"student_id": studentID},
		core.DBOrdering{Field: "module_id", Ascending: true})
}

func (repo *SchoolRepository) QueryGradesForModule(ctx context.Context, moduleID int) ([]school.Grade, error) {
	return FindMany[school.Grade](ctx, repo.db, By{"module_id": moduleID},
		core.DBOrdering{Field: "student_id", Ascending: true})
}

func (repo *SchoolRepository) DeleteGrade(ctx context.Context, moduleID, studentID int) error {
	n, err := DeleteMany[school.Grade](ctx, repo.db, By{"module_id": moduleID, "student_id": studentID})
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo *SchoolRepository) CreateCourse(ctx context.Context, course school.Course) (school.Course, error) {
	if err := SaveOne(ctx, repo.db, &course); err != nil {
		return school.Course{}, err
	}
	return course, nil
}

func (repo *SchoolRepository) GetCourse(ctx context.Context, id int) (school.Course, error) {
	return FindOne[school.Course](ctx, repo.db, By{"id": id})
}

func (repo *SchoolRepository) QueryCourseModules(ctx context.Context, courseID int) ([]school.Module, error) {
	return FindMany[school.Module](ctx, repo.db, By{"course_id": courseID},
		core.DBOrdering{Field: "name", Ascending: true})
}

func (repo *SchoolRepository) QueryCourseStudents(ctx context.Context, courseID int) ([]school.User, error) {
	return FindMany[school.User](ctx, repo.db, By{"course_id": courseID},
		core.DBOrdering{Field: "username", Ascending: true})
}

func (repo *SchoolRepository) DeleteCourse(ctx context.Context, id int) error {
	return DeleteOne[school.Course](ctx, repo.db, By{"id": id})
}

func (repo *SchoolRepository) QueryTimetable(ctx context.Context) ([]school.TimetableEntry, error) {
	return FindMany[school.TimetableEntry](ctx, repo.db, nil,
		core.DBOrdering{Field: "start_time", Ascending: true})
}

func (repo *SchoolRepository) SaveTimetableEntry(ctx context.Context, entry school.TimetableEntry) (school.TimetableEntry, error) {
	if err := SaveOne(ctx, repo.db, &entry); err != nil {
		return school.TimetableEntry{}, err
	}
	return entry, nil
}

func (repo *SchoolRepository) DeleteTimetableEntry(ctx context.Context, id int) error {
	return DeleteOne[school.TimetableEntry](ctx, repo.db, By{"id": id})
}
