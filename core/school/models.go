package school

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/auth"
)

// User is an account. Role flags are mutually exclusive in practice;
// absence of both means student.
type User struct {
	ID              int      `db:"id" json:"id"`
	Username        string   `db:"username" json:"username"`
	PasswordHash    []byte   `db:"password_hash" json:"-"`
	IsTeacher       bool     `db:"is_teacher" json:"is_teacher"`
	IsAdministrator bool     `db:"is_administrator" json:"is_administrator"`
	CourseID        null.Int `db:"course_id" json:"course_id,omitempty"`
}

func (User) Table() string { return "account" }
func (User) Columns() []string {
	return []string{"username", "password_hash", "is_teacher", "is_administrator", "course_id"}
}
func (u User) Identity() int       { return u.ID }
func (u *User) SetIdentity(id int) { u.ID = id }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Role derives the single session role for this account.
func (u User) Role() string {
	switch {
	case u.IsAdministrator:
		return auth.RoleAdministrator
	case u.IsTeacher:
		return auth.RoleTeacher
	default:
		return auth.RoleStudent
	}
}

// UserDetail is the one-to-one profile of an account. It is created in the
// same transaction as its account and never exists without one.
type UserDetail struct {
	ID                  int    `db:"id" json:"id"`
	UserID              int    `db:"user_id" json:"user_id"`
	Fullname            string `db:"fullname" json:"fullname"`
	Address             string `db:"address" json:"address"`
	MatriculationNumber string `db:"matriculation_number" json:"matriculation_number"`
	Mail                string `db:"mail" json:"mail"`
}

func (UserDetail) Table() string { return "user_detail" }
func (UserDetail) Columns() []string {
	return []string{"user_id", "fullname", "address", "matriculation_number", "mail"}
}
func (d UserDetail) Identity() int       { return d.ID }
func (d *UserDetail) SetIdentity(id int) { d.ID = id }

type Course struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (Course) Table() string         { return "course" }
func (Course) Columns() []string     { return []string{"name"} }
func (c Course) Identity() int       { return c.ID }
func (c *Course) SetIdentity(id int) { c.ID = id }

type Module struct {
	ID          int         `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Description null.String `db:"description" json:"description,omitempty"`
	CourseID    null.Int    `db:"course_id" json:"course_id,omitempty"`
}

func (Module) Table() string         { return "module" }
func (Module) Columns() []string     { return []string{"name", "description", "course_id"} }
func (m Module) Identity() int       { return m.ID }
func (m *Module) SetIdentity(id int) { m.ID = id }

// ModuleTeacher assigns a teacher account to a module (many-to-many).
type ModuleTeacher struct {
	ID       int `db:"id" json:"id"`
	ModuleID int `db:"module_id" json:"module_id"`
	UserID   int `db:"user_id" json:"user_id"`
}

func (ModuleTeacher) Table() string          { return "module_teacher" }
func (ModuleTeacher) Columns() []string      { return []string{"module_id", "user_id"} }
func (mt ModuleTeacher) Identity() int       { return mt.ID }
func (mt *ModuleTeacher) SetIdentity(id int) { mt.ID = id }

type ModuleItem struct {
	ID            int         `db:"id" json:"id"`
	ModuleID      int         `db:"module_id" json:"module_id"`
	Content       string      `db:"content" json:"content"`
	WebLink       null.String `db:"web_link" json:"web_link,omitempty"`
	HasFileUpload bool        `db:"has_file_upload" json:"has_file_upload"`
	IsVisible     bool        `db:"is_visible" json:"is_visible"`
}

func (ModuleItem) Table() string { return "module_item" }
func (ModuleItem) Columns() []string {
	return []string{"module_id", "content", "web_link", "has_file_upload", "is_visible"}
}
func (mi ModuleItem) Identity() int       { return mi.ID }
func (mi *ModuleItem) SetIdentity(id int) { mi.ID = id }

// File is the metadata record of an uploaded file; Path is the stored name,
// not the client-supplied one.
type File struct {
	ID           int       `db:"id" json:"id"`
	OwnerID      int       `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Path         string    `db:"path" json:"path"`
	UploadDate   time.Time `db:"upload_date" json:"upload_date"`
	ModuleItemID null.Int  `db:"module_item_id" json:"module_item_id,omitempty"`
}

func (File) Table() string { return "file" }
func (File) Columns() []string {
	return []string{"owner_id", "name", "path", "upload_date", "module_item_id"}
}
func (f File) Identity() int       { return f.ID }
func (f *File) SetIdentity(id int) { f.ID = id }

type Grade struct {
	ID        int `db:"id" json:"id"`
	ModuleID  int `db:"module_id" json:"module_id"`
	StudentID int `db:"student_id" json:"student_id"`
	Grade     int `db:"grade" json:"grade"`
	Weight    int `db:"weight" json:"weight"`
}

func (Grade) Table() string         { return "grade" }
func (Grade) Columns() []string     { return []string{"module_id", "student_id", "grade", "weight"} }
func (g Grade) Identity() int       { return g.ID }
func (g *Grade) SetIdentity(id int) { g.ID = id }

// StudentGrade is a grade joined with the graded student's public details,
// as returned by the per-module listing.
type StudentGrade struct {
	Grade
	Fullname            string `json:"fullname"`
	MatriculationNumber string `json:"matriculation_number"`
}

type TimetableEntry struct {
	ID          int       `db:"id" json:"id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	ModuleID    int       `db:"module_id" json:"module_id"`
	Description string    `db:"description" json:"description"`
	Room        string    `db:"room" json:"room"`
}

func (TimetableEntry) Table() string { return "timetable" }
func (TimetableEntry) Columns() []string {
	return []string{"start_time", "end_time", "module_id", "description", "room"}
}
func (t TimetableEntry) Identity() int       { return t.ID }
func (t *TimetableEntry) SetIdentity(id int) { t.ID = id }

// ModuleWithTeachers is the concrete shape returned by module lookups that
// need the teacher assignment relation.
type ModuleWithTeachers struct {
	Module
	TeacherIDs []int `json:"teacher_ids"`
}

// Request payloads

// RegisterUser contains information needed to create a new account + profile.
type RegisterUser struct {
	Username            string `json:"username" validate:"required,min=4,alphanum_"`
	Password            string `json:"password" validate:"required"`
	Role                string `json:"role" validate:"omitempty,oneof=student teacher administrator"`
	Fullname            string `json:"fullname" validate:"required"`
	Address             string `json:"address"`
	MatriculationNumber string `json:"matriculationNumber" validate:"required"`
	Mail                string `json:"mail" validate:"required,email"`
}

func (ru *RegisterUser) Validate() error {
	ru.Username = core.CleanString(ru.Username, true /* lower */)
	ru.Fullname = core.CleanString(ru.Fullname)
	ru.Mail = core.CleanString(ru.Mail, true /* lower */)
	ru.MatriculationNumber = core.CleanString(ru.MatriculationNumber)
	return core.Validate.Struct(ru)
}

type LoginUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lu *LoginUser) Validate() error {
	lu.Username = core.CleanString(lu.Username, true /* lower */)
	return core.Validate.Struct(lu)
}

type DeleteUser struct {
	Username string `json:"username" validate:"required"`
}

func (du *DeleteUser) Validate() error {
	du.Username = core.CleanString(du.Username, true /* lower */)
	return core.Validate.Struct(du)
}

type ChangePassword struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (cp *ChangePassword) Validate() error {
	cp.Username = core.CleanString(cp.Username, true /* lower */)
	return core.Validate.Struct(cp)
}

type NewModule struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CourseID    int    `json:"course_id"`
	TeacherIDs  []int  `json:"teacher_ids"`
}

func (nm *NewModule) Validate() error {
	nm.Name = core.CleanString(nm.Name)
	nm.Description = core.CleanString(nm.Description)
	return core.Validate.Struct(nm)
}

type NewGrade struct {
	ModuleID  int `json:"module_id"`
	StudentID int `json:"student_id" validate:"required"`
	Grade     int `json:"grade" validate:"min=0,max=100"`
	Weight    int `json:"weight" validate:"required,min=1"`
}

func (ng *NewGrade) Validate() error { return core.Validate.Struct(ng) }

type DeleteGrade struct {
	ModuleID  int `json:"module_id"`
	StudentID int `json:"student_id" validate:"required"`
}

func (dg *DeleteGrade) Validate() error { return core.Validate.Struct(dg) }

type NewCourse struct {
	Name string `json:"name" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	return core.Validate.Struct(nc)
}

type DeleteCourse struct {
	ID int `json:"id" validate:"required"`
}

func (dc *DeleteCourse) Validate() error { return core.Validate.Struct(dc) }

type NewTimetableEntry struct {
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ModuleID    int       `json:"module_id" validate:"required"`
	Description string    `json:"description"`
	Room        string    `json:"room" validate:"required"`
}

func (nt *NewTimetableEntry) Validate() error {
	nt.Description = core.CleanString(nt.Description)
	nt.Room = core.CleanString(nt.Room)
	return core.Validate.Struct(nt)
}

type DeleteTimetableEntry struct {
	ID int `json:"id" validate:"required"`
}

func (dt *DeleteTimetableEntry) Validate() error { return core.Validate.Struct(dt) }

// NewModuleItem optionally carries a downloadable file to be created and
// linked in the same transaction as the item.
type NewModuleItem struct {
	ModuleID      int    `json:"module_id"`
	Content       string `json:"content" validate:"required"`
	WebLink       string `json:"web_link" validate:"omitempty,url"`
	HasFileUpload bool   `json:"has_file_upload"`
	IsVisible     bool   `json:"is_visible"`
	FileName      string `json:"file_name"`
}

func (ni *NewModuleItem) Validate() error {
	ni.Content = core.CleanString(ni.Content)
	ni.FileName = core.CleanString(ni.FileName)
	return core.Validate.Struct(ni)
}
