package oracle

import (
	"regexp"
	"strings"

	"airline-assistant-service/internal/domain/entity"
)

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	selectRegex      = regexp.MustCompile(`(?i)\bSELECT\b`)
	cteRegex         = regexp.MustCompile(`(?i)\bWITH\s+(?:RECURSIVE\s+)?(?:"[^"]+"|[A-Za-z_][A-Za-z0-9_]*)\s+AS\s*\(`)
	writeRegex       = regexp.MustCompile(`(?i)\b(?:INSERT\s+INTO|UPDATE\s+"?[A-Za-z_][A-Za-z0-9_]*"?\s+SET|DELETE\s+FROM)\b`)
	quotedRegex      = regexp.MustCompile(`'(?:[^']|'')*'|"[^"]*"`)
	sqlMarkers       = []string{"SQLQuery:", "SQL Query:", "SQL:", "```sql", "```SQL", "```"}
)

// UnwrapSQL removes the wrappers models put around generated SQL: markdown fences,
// "SQLQuery:" prefixes and leading prose. It fails with MalformedGeneration when no
// statement is left.
func UnwrapSQL(text string) (string, error) {
	body := text
	if m := fencedBlockRegex.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	for _, marker := range sqlMarkers {
		body = strings.ReplaceAll(body, marker, "")
	}

	start := statementStart(body)
	if start < 0 {
		return "", entity.NewMalformedGeneration("no SQL statement in generated text")
	}
	stmt := strings.TrimSpace(body[start:])

	// prose after the statement terminator is dropped; a ';' inside a literal is kept
	masked := quotedRegex.ReplaceAllStringFunc(stmt, func(q string) string {
		return strings.Repeat("x", len(q))
	})
	if i := strings.IndexByte(masked, ';'); i >= 0 {
		stmt = stmt[:i]
	}
	stmt = strings.Join(strings.Fields(stmt), " ")
	if stmt == "" {
		return "", entity.NewMalformedGeneration("empty SQL statement")
	}
	return stmt, nil
}

// statementStart returns the offset of the first SELECT or CTE. Writes are only looked
// for when there is no query, so that the guard can reject them.
func statementStart(body string) int {
	start := -1
	for _, re := range []*regexp.Regexp{selectRegex, cteRegex} {
		if loc := re.FindStringIndex(body); loc != nil && (start < 0 || loc[0] < start) {
			start = loc[0]
		}
	}
	if start >= 0 {
		return start
	}
	if loc := writeRegex.FindStringIndex(body); loc != nil {
		return loc[0]
	}
	return -1
}

// UnwrapText strips markdown fences and surrounding quotes from a label or JSON reply
func UnwrapText(text string) string {
	body := strings.TrimSpace(text)
	if m := fencedBlockRegex.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(body)
	body = strings.Trim(body, "`\"'")
	return strings.TrimSpace(body)
}
