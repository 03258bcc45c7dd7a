package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// nonNilStrings keeps NOT NULL array columns from receiving NULL for a nil slice.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
