package db

import "testing"

func TestOperation(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{sql: "SELECT id FROM tasks", want: "select"},
		{sql: "\n\t  UPDATE tasks SET status = $1", want: "update"},
		{sql: "WITH x AS (SELECT 1) SELECT * FROM x", want: "select"},
		{sql: "", want: "unknown"},
		{sql: "delete from projects where id = $1", want: "delete"},
	}
	for _, tc := range cases {
		if got := Operation(tc.sql); got != tc.want {
			t.Errorf("Operation(%q) = %q, want %q", tc.sql, got, tc.want)
		}
	}
}
