package d1

import "strings"

// Kind classifies a SQL statement before it is sent anywhere. The
// classifier is a plain keyword matcher on the first token; anything it
// does not recognize is denied rather than guessed at.
type Kind string

const (
	KindRead   Kind = "read"
	KindWrite  Kind = "write"
	KindDenied Kind = "denied"
)

var readStatements = map[string]bool{
	"SELECT":  true,
	"EXPLAIN": true,
	"WITH":    true,
}

var writeStatements = map[string]bool{
	"INSERT":  true,
	"UPDATE":  true,
	"DELETE":  true,
	"REPLACE": true,
	"CREATE":  true,
	"ALTER":   true,
	"DROP":    true,
}

func Classify(sql string) Kind {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return KindDenied
	}

	keyword := strings.ToUpper(fields[0])
	switch {
	case readStatements[keyword]:
		return KindRead
	case writeStatements[keyword]:
		return KindWrite
	default:
		return KindDenied
	}
}
