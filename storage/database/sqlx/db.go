// Package sqlxrepos implements the repositories on PostgreSQL with sqlx. Queries are built with squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func getOne(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return exec.GetContext(ctx, dest, q, args...)
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return exec.SelectContext(ctx, dest, q, args...)
}

// execAffecting runs `b` and returns notFound when no row was affected.
func execAffecting(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer, notFound error) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 && notFound != nil {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func orderBy(b sq.SelectBuilder, ordering []core.DBOrdering, columns ...string) sq.SelectBuilder {
	for _, ord := range core.AllowedOrderings(ordering, columns...) {
		b = b.OrderBy(ord.String())
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ilikeAny matches `search` as a literal substring of any of `columns`, ignoring case.
func ilikeAny(search string, columns ...string) sq.Or {
	val := "%" + likeEscaper.Replace(search) + "%"
	cond := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		cond = append(cond, sq.Expr(col+` ILIKE ? ESCAPE '\'`, val))
	}
	return cond
}
