package query

import "strconv"

// PaginateQuery appends id based paging to query, which must end in a
// parenthesized WHERE clause, and returns the extended argument list.
//
//	PaginateQuery("SELECT * FROM t WHERE (creator = $1)", args, cursor, 10, Descending)
//	> "SELECT * FROM t WHERE (creator = $1) AND id < $2 ORDER BY id DESC LIMIT $3"
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	next := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	comparison, order := " > ", " ASC"
	if direction == Descending {
		comparison, order = " < ", " DESC"
	}

	if len(cursor) > 0 {
		query += " AND id" + comparison + next(cursor.ToUint64())
	}
	query += " ORDER BY id" + order
	if limit > 0 {
		query += " LIMIT " + next(limit)
	}
	return query, args
}
