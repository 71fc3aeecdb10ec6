package graph

import "strings"

// cypherQuery composes a Cypher statement from whole clauses plus a
// parameter map. Optional predicates join as clauses and values always
// travel as parameters; no user input is ever concatenated into the text.
type cypherQuery struct {
	clauses []string
	params  map[string]any
}

func newCypherQuery() *cypherQuery {
	return &cypherQuery{params: map[string]any{}}
}

func (q *cypherQuery) Clause(text string) *cypherQuery {
	text = strings.TrimSpace(text)
	if text != "" {
		q.clauses = append(q.clauses, text)
	}
	return q
}

func (q *cypherQuery) Param(name string, value any) *cypherQuery {
	q.params[name] = value
	return q
}

func (q *cypherQuery) Text() string {
	return strings.Join(q.clauses, "\n")
}

func (q *cypherQuery) Params() map[string]any {
	return q.params
}

// MatchQuery is the typed form of findMatchingTrials. Status is required
// (callers default it to RECRUITING); Conditions and LocationID are
// optional predicates. MaxDistanceKM is carried for a future radius filter
// and does not constrain results today.
type MatchQuery struct {
	Conditions    []string
	LocationID    string
	Status        string
	MaxDistanceKM *float64
	Limit         int
}

// buildMatchQuery assembles the scored traversal:
//
//	score = 10 × |distinct matched conditions| + 5 × exact-location match
//
// Either term collapses to literal 0 when its filter is absent, and
// zero-score candidates are excluded outright.
func buildMatchQuery(q MatchQuery) *cypherQuery {
	cq := newCypherQuery().
		Clause(`MATCH (t:Trial)`).
		Clause(`WHERE t.status = $status`).
		Param("status", q.Status).
		Param("limit", int64(q.Limit))

	conditionScore := "0"
	if len(q.Conditions) > 0 {
		normalized := make([]string, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			normalized = append(normalized, strings.ToLower(strings.TrimSpace(c)))
		}
		cq.Clause(`OPTIONAL MATCH (t)-[:TREATS]->(c:Condition)`).
			Clause(`WHERE c.name IN $conditions OR c.nameNormalized IN $conditionsNormalized`).
			Param("conditions", q.Conditions).
			Param("conditionsNormalized", normalized)
		conditionScore = "count(DISTINCT c) * 10"
	}

	locationScore := "0"
	if strings.TrimSpace(q.LocationID) != "" {
		cq.Clause(`OPTIONAL MATCH (t)-[:LOCATED_IN]->(l:Location {locationId: $locationId})`).
			Param("locationId", q.LocationID)
		locationScore = "count(DISTINCT l) * 5"
	}

	cq.Clause(`WITH t, ` + conditionScore + ` AS conditionScore, ` + locationScore + ` AS locationScore`).
		Clause(`WITH t, (conditionScore + locationScore) AS matchScore`).
		Clause(`WHERE matchScore > 0`).
		Clause(`RETURN t.nctId AS nctId,
       t.title AS title,
       t.status AS status,
       t.phase AS phase,
       matchScore`).
		Clause(`ORDER BY matchScore DESC`).
		Clause(`LIMIT $limit`)

	return cq
}
