package database

const (
	DefaultSortField     = "name"
	DefaultSortDirection = "asc"
)

// sortable fields accepted by the game list endpoint, mapped to their ORDER BY
// expressions. Name ordering ignores a leading "The " so that e.g.
// "The Settlers of Catan" files under S while its stored name is unchanged.
var gameSortColumns = map[string]string{
	"name":           "CASE WHEN lower(name) LIKE 'the %' THEN substr(name, 5) ELSE name END",
	"min_playtime":   "min_playtime",
	"max_playtime":   "max_playtime",
	"min_players":    "min_players",
	"max_players":    "max_players",
	"difficulty":     "difficulty",
	"user_rating":    "user_rating",
	"date_added":     "date_added",
	"last_played":    "last_played",
	"status":         "status",
	"purchase_price": "purchase_price",
	"purchase_date":  "purchase_date",
}

// IsValidSortField checks if a string is an accepted game sort field
func IsValidSortField(field string) bool {
	_, ok := gameSortColumns[field]
	return ok
}

// GameOrderClause returns the ORDER BY expression for the given sort field and
// direction. Unknown fields fall back to the name ordering; any direction
// other than "desc" sorts ascending.
func GameOrderClause(field, direction string) string {
	expr, ok := gameSortColumns[field]
	if !ok {
		expr = gameSortColumns[DefaultSortField]
	}
	dir := "ASC"
	if direction == "desc" {
		dir = "DESC"
	}
	return expr + " " + dir
}
