package sqldump

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "line comments",
			input: "-- dump header\nINSERT INTO t VALUES (1); # trailing\n",
			want:  "INSERT INTO t VALUES (1);",
		},
		{
			name:  "version comment",
			input: "/*!40101 SET NAMES utf8 */;\nINSERT INTO t VALUES (1);",
			want:  "; INSERT INTO t VALUES (1);",
		},
		{
			name:  "whitespace collapsed outside quotes",
			input: "INSERT   INTO\n\tt VALUES ('a\n\n  b')",
			want:  "INSERT INTO t VALUES ('a\n\n  b')",
		},
		{
			name:  "comment markers inside quotes",
			input: "INSERT INTO t VALUES ('a -- b', \"# c\", '/* d */')",
			want:  "INSERT INTO t VALUES ('a -- b', \"# c\", '/* d */')",
		},
		{
			name:  "escaped quote keeps quote state",
			input: `INSERT INTO t VALUES ('it\'s -- here')`,
			want:  `INSERT INTO t VALUES ('it\'s -- here')`,
		},
		{
			name:  "double minus without space",
			input: "INSERT INTO t VALUES (5--3)",
			want:  "INSERT INTO t VALUES (5--3)",
		},
		{
			name:  "unterminated block comment",
			input: "INSERT INTO t VALUES (1); /* never closed",
			want:  "INSERT INTO t VALUES (1);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input, DefaultOptions())
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
