package school

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/auth"
)

var (
	// ErrAuthenticationFailed hides whether the username or the password was
	// wrong; its text is the user-visible login failure message.
	ErrAuthenticationFailed = errors.New("Wrong username or password")

	ErrUserExists  = errors.New("a user with this username, matriculation number or mail already exists")
	ErrNotATeacher = errors.New("account does not have the teacher role")
)

type (
	// Repository persists school entities. Multi-entity operations
	// (account+profile, module+assignments, item+file) are atomic: either
	// every write is visible afterwards or none is.
	Repository interface {
		CreateUserWithDetail(ctx context.Context, usr User, det UserDetail) (User, UserDetail, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserDetail(ctx context.Context, userID int) (UserDetail, error)
		UpdateUserPassword(ctx context.Context, userID int, hash []byte) error
		DeleteUserWithDetail(ctx context.Context, userID int) error

		CreateModule(ctx context.Context, mod Module, teacherIDs []int) (Module, error)
		GetModule(ctx context.Context, id int) (Module, error)
		// GetModuleTeachers fails with core.ErrNotFound when the module id does not exist.
		GetModuleTeachers(ctx context.Context, moduleID int) ([]int, error)
		AddModuleTeacher(ctx context.Context, moduleID, userID int) error
		DeleteModule(ctx context.Context, id int) error
		CreateModuleItemWithFile(ctx context.Context, item ModuleItem, file *File) (ModuleItem, error)

		SaveGrade(ctx context.Context, grade Grade) (Grade, error)
		QueryGradesForStudent(ctx context.Context, studentID int) ([]Grade, error)
		QueryGradesForModule(ctx context.Context, moduleID int) ([]Grade, error)
		DeleteGrade(ctx context.Context, moduleID, studentID int) error

		CreateCourse(ctx context.Context, course Course) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		QueryCourseModules(ctx context.Context, courseID int) ([]Module, error)
		QueryCourseStudents(ctx context.Context, courseID int) ([]User, error)
		DeleteCourse(ctx context.Context, id int) error

		QueryTimetable(ctx context.Context) ([]TimetableEntry, error)
		SaveTimetableEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error)
		DeleteTimetableEntry(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		tokenSvc *auth.TokenService
		mailSvc  core.EmailService
		conf     *core.Config
	}
)

var _ auth.ModuleTeacherResolver = (*Service)(nil)

func NewService(repo Repository, tokenSvc *auth.TokenService, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		tokenSvc: tokenSvc,
		mailSvc:  mailSvc,
		conf:     conf,
	}
}

// Register creates the account and its profile in one transaction and sends a
// welcome email on success.
func (svc *Service) Register(ctx context.Context, data RegisterUser) (User, error) {
	usr := User{
		Username:        data.Username,
		IsTeacher:       data.Role == auth.RoleTeacher,
		IsAdministrator: data.Role == auth.RoleAdministrator,
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	det := UserDetail{
		Fullname:            data.Fullname,
		Address:             data.Address,
		MatriculationNumber: data.MatriculationNumber,
		Mail:                data.Mail,
	}

	usr, det, err := svc.repo.CreateUserWithDetail(ctx, usr, det)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr, det)
	return usr, nil
}

// Login checks the credentials and returns a signed session token.
// Every failure collapses into ErrAuthenticationFailed.
func (svc *Service) Login(ctx context.Context, data LoginUser) (string, error) {
	usr, err := svc.repo.GetUserByUsername(ctx, data.Username)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	if err = usr.CheckPassword(data.Password); err != nil {
		return "", ErrAuthenticationFailed
	}
	det, err := svc.repo.GetUserDetail(ctx, usr.ID)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return svc.tokenSvc.Issue(usr.ID, usr.Username, det.Fullname, usr.Role())
}

// Delete removes the account and its profile; the profile has no independent
// lifecycle.
func (svc *Service) Delete(ctx context.Context, data DeleteUser) error {
	usr, err := svc.repo.GetUserByUsername(ctx, data.Username)
	if err != nil {
		return err
	}
	return svc.repo.DeleteUserWithDetail(ctx, usr.ID)
}

func (svc *Service) ChangePassword(ctx context.Context, data ChangePassword) error {
	usr, err := svc.repo.GetUserByUsername(ctx, data.Username)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUserPassword(ctx, usr.ID, usr.PasswordHash)
}

func (svc *Service) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(username, true /* lower */))
}

// TeachersOfModule implements auth.ModuleTeacherResolver.
func (svc *Service) TeachersOfModule(ctx context.Context, moduleID int) ([]int, error) {
	return svc.repo.GetModuleTeachers(ctx, moduleID)
}

// CreateModule creates a module together with its teacher assignments.
// Assignments are restricted to teacher-role accounts.
func (svc *Service) CreateModule(ctx context.Context, data NewModule) (ModuleWithTeachers, error) {
	for _, id := range data.TeacherIDs {
		if err := svc.checkTeacher(ctx, id); err != nil {
			return ModuleWithTeachers{}, err
		}
	}

	mod := Module{
		Name:        data.Name,
		Description: null.NewString(data.Description, data.Description != ""),
		CourseID:    null.NewInt(data.CourseID, data.CourseID != 0),
	}
	mod, err := svc.repo.CreateModule(ctx, mod, data.TeacherIDs)
	if err != nil {
		return ModuleWithTeachers{}, err
	}
	return ModuleWithTeachers{Module: mod, TeacherIDs: data.TeacherIDs}, nil
}

func (svc *Service) GetModule(ctx context.Context, id int) (ModuleWithTeachers, error) {
	mod, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return ModuleWithTeachers{}, err
	}
	teacherIDs, err := svc.repo.GetModuleTeachers(ctx, id)
	if err != nil {
		return ModuleWithTeachers{}, err
	}
	return ModuleWithTeachers{Module: mod, TeacherIDs: teacherIDs}, nil
}

func (svc *Service) AddModuleTeacher(ctx context.Context, moduleID, userID int) error {
	if err := svc.checkTeacher(ctx, userID); err != nil {
		return err
	}
	if _, err := svc.repo.GetModule(ctx, moduleID); err != nil {
		return err
	}
	return svc.repo.AddModuleTeacher(ctx, moduleID, userID)
}

func (svc *Service) DeleteModule(ctx context.Context, id int) error {
	return svc.repo.DeleteModule(ctx, id)
}

// CreateModuleItem creates a module item; when a downloadable file is supplied
// both records are written in the same transaction.
func (svc *Service) CreateModuleItem(ctx context.Context, ownerID int, data NewModuleItem) (ModuleItem, error) {
	item := ModuleItem{
		ModuleID:      data.ModuleID,
		Content:       data.Content,
		WebLink:       null.NewString(data.WebLink, data.WebLink != ""),
		HasFileUpload: data.HasFileUpload,
		IsVisible:     data.IsVisible,
	}

	var file *File
	if data.FileName != "" {
		file = &File{
			OwnerID:    ownerID,
			Name:       data.FileName,
			Path:       uuid.New().String(),
			UploadDate: time.Now().UTC(),
		}
	}
	return svc.repo.CreateModuleItemWithFile(ctx, item, file)
}

// InsertGrade inserts or updates the grade of a student in a module.
func (svc *Service) InsertGrade(ctx context.Context, data NewGrade) (Grade, error) {
	grade := Grade{
		ModuleID:  data.ModuleID,
		StudentID: data.StudentID,
		Grade:     data.Grade,
		Weight:    data.Weight,
	}
	return svc.repo.SaveGrade(ctx, grade)
}

func (svc *Service) GradesForStudent(ctx context.Context, studentID int) ([]Grade, error) {
	return svc.repo.QueryGradesForStudent(ctx, studentID)
}

// GradesForModule returns the module's grades joined with each student's
// public details.
func (svc *Service) GradesForModule(ctx context.Context, moduleID int) ([]StudentGrade, error) {
	grades, err := svc.repo.QueryGradesForModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	studentGrades := make([]StudentGrade, 0, len(grades))
	for _, grade := range grades {
		det, err := svc.repo.GetUserDetail(ctx, grade.StudentID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading details of student %d", grade.StudentID)
		}
		studentGrades = append(studentGrades, StudentGrade{
			Grade:               grade,
			Fullname:            det.Fullname,
			MatriculationNumber: det.MatriculationNumber,
		})
	}
	return studentGrades, nil
}

func (svc *Service) DeleteGrade(ctx context.Context, data DeleteGrade) error {
	return svc.repo.DeleteGrade(ctx, data.ModuleID, data.StudentID)
}

func (svc *Service) CreateCourse(ctx context.Context, data NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{Name: data.Name})
}

// GetCourse returns the course together with its modules and enrolled students.
func (svc *Service) GetCourse(ctx context.Context, id int) (Course, []Module, []User, error) {
	course, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, nil, nil, err
	}
	modules, err := svc.repo.QueryCourseModules(ctx, id)
	if err != nil {
		return Course{}, nil, nil, err
	}
	students, err := svc.repo.QueryCourseStudents(ctx, id)
	if err != nil {
		return Course{}, nil, nil, err
	}
	return course, modules, students, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id int) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) Timetable(ctx context.Context) ([]TimetableEntry, error) {
	return svc.repo.QueryTimetable(ctx)
}

func (svc *Service) AddTimetableEntry(ctx context.Context, data NewTimetableEntry) (TimetableEntry, error) {
	entry := TimetableEntry{
		StartTime:   data.StartTime.UTC(),
		EndTime:     data.EndTime.UTC(),
		ModuleID:    data.ModuleID,
		Description: data.Description,
		Room:        data.Room,
	}
	if _, err := svc.repo.GetModule(ctx, data.ModuleID); err != nil {
		return TimetableEntry{}, err
	}
	return svc.repo.SaveTimetableEntry(ctx, entry)
}

func (svc *Service) DeleteTimetableEntry(ctx context.Context, id int) error {
	return svc.repo.DeleteTimetableEntry(ctx, id)
}

func (svc *Service) checkTeacher(ctx context.Context, userID int) error {
	usr, err := svc.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !usr.IsTeacher {
		return core.NewValidationError(ErrNotATeacher,
			core.FieldError{Field: "teacher_ids", Error: ErrNotATeacher.Error()})
	}
	return nil
}

func (svc *Service) sendWelcomeEmail(usr User, det UserDetail) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: det.Fullname, Address: det.Mail}},
		Subject: "Welcome aboard!",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour %s account %q is ready. You can now log in and find your modules, grades and timetable.",
			det.Fullname, svc.conf.AppName, usr.Username,
		),
	})
}
