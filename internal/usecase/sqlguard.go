package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"airline-assistant-service/internal/domain/entity"
)

var (
	stringLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'`)
	forbiddenRegex     = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|GRANT|REVOKE|COPY|MERGE|CALL|EXECUTE|EXEC|ATTACH|PRAGMA|VACUUM|PG_SLEEP|SET|INTO)\b`)
	aggregateRegex     = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX)\s*\(|\bGROUP\s+BY\b`)
	tableRefRegex      = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+("[^"]+"|[A-Za-z_][A-Za-z0-9_.]*)`)
	countStarRegex     = regexp.MustCompile(`(?i)\bCOUNT\s*\(\s*\*\s*\)`)
	selectStartRegex   = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
	wantsAggregate     = regexp.MustCompile(`(?i)\b(how many|count|number of|total|average|avg|sum|cheapest|lowest|highest|minimum|maximum|fastest|shortest|longest)\b`)
)

// SQLGuard describes what a generated read query must look like
type SQLGuard struct {
	// Table is the only table the query may read
	Table string
	// Literals must all appear as string literals, compared case-insensitively
	Literals []string
	// AllowAggregation permits COUNT/SUM/AVG/MIN/MAX and GROUP BY
	AllowAggregation bool
}

// Check rejects anything but a single SELECT against the guarded table that filters on the
// required literals. Violations are MalformedGeneration errors.
func (g SQLGuard) Check(query string) error {
	q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if q == "" {
		return entity.NewMalformedGeneration("empty query")
	}

	literals := stringLiteralRegex.FindAllString(q, -1)
	bare := stringLiteralRegex.ReplaceAllString(q, "''")

	if strings.Contains(bare, ";") {
		return entity.NewMalformedGeneration("multiple statements are not allowed")
	}
	if strings.Contains(bare, "--") || strings.Contains(bare, "/*") {
		return entity.NewMalformedGeneration("comments are not allowed")
	}
	if !selectStartRegex.MatchString(bare) {
		return entity.NewMalformedGeneration("only SELECT queries are allowed")
	}
	if m := forbiddenRegex.FindString(bare); m != "" {
		return entity.NewMalformedGeneration(fmt.Sprintf("%s is not allowed in a read query", strings.ToUpper(m)))
	}
	if strings.Contains(countStarRegex.ReplaceAllString(bare, ""), "*") {
		return entity.NewMalformedGeneration("selecting all columns is not allowed")
	}
	if !g.AllowAggregation && aggregateRegex.MatchString(bare) {
		return entity.NewMalformedGeneration("aggregation was not requested")
	}

	refs := tableRefRegex.FindAllStringSubmatch(bare, -1)
	if len(refs) == 0 {
		return entity.NewMalformedGeneration("query reads no table")
	}
	for _, ref := range refs {
		name := strings.Trim(ref[1], `"`)
		if !strings.EqualFold(name, g.Table) {
			return entity.NewMalformedGeneration(fmt.Sprintf("table %s is not allowed", ref[1]))
		}
	}

	for _, want := range g.Literals {
		if !containsLiteral(literals, want) {
			return entity.NewMalformedGeneration(fmt.Sprintf("query does not filter on %s", want))
		}
	}
	return nil
}

func containsLiteral(literals []string, want string) bool {
	for _, lit := range literals {
		value := strings.ReplaceAll(lit[1:len(lit)-1], "''", "'")
		value = strings.Trim(value, "%")
		if strings.EqualFold(strings.TrimSpace(value), want) {
			return true
		}
	}
	return false
}

// aggregationRequested reports whether the question asks for a count, extreme or total
func aggregationRequested(question string) bool {
	return wantsAggregate.MatchString(question)
}
