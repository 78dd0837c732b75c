package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/noodle/core"
)

// Entity is the persistence metadata a record type exposes to the generic
// find/save/delete operations.
type Entity interface {
	Table() string
	// Columns lists the insertable/updatable columns, excluding "id",
	// in a fixed order matching the struct's db tags.
	Columns() []string
	// Identity returns the primary key; zero means not persisted yet.
	Identity() int
	SetIdentity(int)
}

type entityPtr[E any] interface {
	*E
	Entity
}

// By selects rows by exact column match. Nil and empty-string values are
// stripped before use so an absent request field can never widen a query.
type By map[string]interface{}

func (by By) clean() By {
	cleaned := make(By, len(by))
	for col, val := range by {
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		cleaned[col] = val
	}
	return cleaned
}

// terms returns the criteria columns in a deterministic order with their values.
func (by By) terms() ([]string, []interface{}) {
	cols := make([]string, 0, len(by))
	for col := range by {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		args = append(args, by[col])
	}
	return cols, args
}

// FindOne loads the single entity matching the criteria.
// It fails with core.ErrEmptyCriteria when the criteria is empty once
// stripped (guards against an accidental full-table match) and with
// core.ErrNotFound when no row matches.
func FindOne[E any, PE entityPtr[E]](ctx context.Context, exec core.DBExecutor, by By) (E, error) {
	var ent E
	table := PE(&ent).Table()

	by = by.clean()
	if len(by) == 0 {
		return ent, core.ErrEmptyCriteria
	}
	cols, args := by.terms()

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s LIMIT 1",
		quote(table), strmangle.WhereClause(`"`, `"`, 1, cols),
	)
	if err := sqlx.GetContext(ctx, exec, &ent, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return ent, core.ErrNotFound
		}
		return ent, errors.Wrapf(err, "finding %s", table)
	}
	return ent, nil
}

// FindMany loads all entities matching the criteria; zero matches is a normal
// outcome, not an error. An empty criteria matches the whole table.
func FindMany[E any, PE entityPtr[E]](ctx context.Context, exec core.DBExecutor, by By, ordering ...core.DBOrdering) ([]E, error) {
	var proto E
	table := PE(&proto).Table()

	query := "SELECT * FROM " + quote(table)
	var args []interface{}
	if by = by.clean(); len(by) > 0 {
		cols, vals := by.terms()
		query += " WHERE " + strmangle.WhereClause(`"`, `"`, 1, cols)
		args = vals
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	}

	ents := make([]E, 0)
	if err := sqlx.SelectContext(ctx, exec, &ents, query, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	return ents, nil
}

type (
	// Write is one pending entity write of a write set.
	Write struct {
		ent  Entity
		link func()
	}

	// WriteSet is an ordered list of entity writes that must be committed
	// together or not at all.
	WriteSet []Write
)

func Put(ent Entity) Write { return Write{ent: ent} }

// PutLinked defers link until every preceding write of the set has been
// assigned its identity, so a dependent record can reference a generated id.
func PutLinked(ent Entity, link func()) Write { return Write{ent: ent, link: link} }

// SaveOne upserts a single entity in its own transaction: insert when it has
// no identity yet, update by primary key otherwise.
func SaveOne(ctx context.Context, db core.DB, ent Entity) error {
	return SaveMany(ctx, db, WriteSet{Put(ent)})
}

// SaveMany applies the write set in caller order inside one transaction and
// commits only if every write succeeds. On failure the transaction is rolled
// back and no member of the set is visible to subsequent reads.
func SaveMany(ctx context.Context, db core.DB, set WriteSet) error {
	if len(set) == 0 {
		return nil
	}

	// the transaction outcome is decided by this control flow,
	// not by the client connection going away
	ctx = context.WithoutCancel(ctx)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewPersistError(err)
	}
	for _, w := range set {
		if w.link != nil {
			w.link()
		}
		if err = save(ctx, tx, w.ent); err != nil {
			_ = tx.Rollback()
			return core.NewPersistError(err)
		}
	}
	if err = tx.Commit(); err != nil {
		return core.NewPersistError(err)
	}
	return nil
}

// Atomically runs fn inside one transaction; any fn error rolls every write
// back and is returned unchanged.
func Atomically(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) error {
	ctx = context.WithoutCancel(ctx)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewPersistError(err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewPersistError(err)
	}
	return nil
}

// DeleteOne removes the single entity matching the criteria, failing with
// core.ErrNotFound when there is none.
func DeleteOne[E any, PE entityPtr[E]](ctx context.Context, exec core.DBExecutor, by By) error {
	ent, err := FindOne[E, PE](ctx, exec, by)
	if err != nil {
		return err
	}
	pe := PE(&ent)
	query := fmt.Sprintf(`DELETE FROM %s WHERE "id"=$1`, quote(pe.Table()))
	if _, err = exec.ExecContext(ctx, query, pe.Identity()); err != nil {
		return core.NewPersistError(errors.Wrapf(err, "deleting %s", pe.Table()))
	}
	return nil
}

// DeleteMany removes all entities matching the criteria and reports how many
// rows went away. The empty-criteria guard applies: wiping a table must be
// asked for explicitly, not by accident.
func DeleteMany[E any, PE entityPtr[E]](ctx context.Context, exec core.DBExecutor, by By) (int64, error) {
	var proto E
	table := PE(&proto).Table()

	by = by.clean()
	if len(by) == 0 {
		return 0, core.ErrEmptyCriteria
	}
	cols, args := by.terms()

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s",
		quote(table), strmangle.WhereClause(`"`, `"`, 1, cols),
	)
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, core.NewPersistError(errors.Wrapf(err, "deleting from %s", table))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "deleting from %s", table)
	}
	return n, nil
}

func save(ctx context.Context, exec core.DBExecutor, ent Entity) error {
	if ent.Identity() == 0 {
		return insert(ctx, exec, ent)
	}
	return update(ctx, exec, ent)
}

func insert(ctx context.Context, exec core.DBExecutor, ent Entity) error {
	cols := ent.Columns()
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING "id"`,
		quote(ent.Table()),
		strings.Join(quoteAll(cols), ", "),
		":"+strings.Join(cols, ", :"),
	)

	rows, err := sqlx.NamedQueryContext(ctx, exec, query, ent)
	if err != nil {
		return errors.Wrapf(err, "inserting %s", ent.Table())
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return errors.Wrapf(err, "inserting %s", ent.Table())
		}
		return errors.Errorf("inserting %s: no id returned", ent.Table())
	}
	var id int
	if err = rows.Scan(&id); err != nil {
		return errors.Wrapf(err, "inserting %s", ent.Table())
	}
	ent.SetIdentity(id)
	return nil
}

func update(ctx context.Context, exec core.DBExecutor, ent Entity) error {
	cols := ent.Columns()
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		sets = append(sets, quote(col)+"=:"+col)
	}
	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE "id"=:id`,
		quote(ent.Table()), strings.Join(sets, ", "),
	)

	res, err := sqlx.NamedExecContext(ctx, exec, query, ent)
	if err != nil {
		return errors.Wrapf(err, "updating %s", ent.Table())
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func quoteAll(idents []string) []string {
	quoted := make([]string, 0, len(idents))
	for _, ident := range idents {
		quoted = append(quoted, quote(ident))
	}
	return quoted
}
