package database

import "strings"

// likeEscape escapes LIKE pattern metacharacters so a field name prefix can
// be matched literally with ESCAPE '\'.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)
	return r.Replace(s)
}
