package graph

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/clinect/clinect-backend/internal/domain"
)

const (
	defaultMatchLimit     = 20
	defaultRelatedLimit   = 10
	defaultRecommendLimit = 10
)

// FindMatchingTrials runs the scored traversal described on MatchQuery.
// Candidates whose score is zero never appear, even when their status
// matches.
func (s *Store) FindMatchingTrials(ctx context.Context, q MatchQuery) ([]domain.TrialMatch, error) {
	if strings.TrimSpace(q.Status) == "" {
		q.Status = domain.StatusRecruiting
	}
	if q.Limit <= 0 {
		q.Limit = defaultMatchLimit
	}

	cq := buildMatchQuery(q)
	records, err := s.read(ctx, cq.Text(), cq.Params())
	if err != nil {
		return nil, err
	}

	out := make([]domain.TrialMatch, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.TrialMatch{
			NCTID:  recString(rec, "nctId"),
			Title:  recString(rec, "title"),
			Status: recString(rec, "status"),
			Phase:  recStrings(rec, "phase"),
			Score:  recInt64(rec, "matchScore"),
		})
	}
	return out, nil
}

// FindRelatedTrials returns trials sharing a condition or location with the
// given one, scored 3 per shared condition and 1 per shared location.
func (s *Store) FindRelatedTrials(ctx context.Context, nctID string, limit int) ([]domain.RelatedTrial, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	cq := newCypherQuery().
		Clause(`MATCH (t1:Trial {nctId: $nctId})`).
		Clause(`OPTIONAL MATCH (t1)-[:TREATS]->(c:Condition)<-[:TREATS]-(t2:Trial)`).
		Clause(`WHERE t2.nctId <> $nctId`).
		Clause(`WITH t1, t2, collect(DISTINCT c.name) AS sharedConditions`).
		Clause(`OPTIONAL MATCH (t1)-[:LOCATED_IN]->(l:Location)<-[:LOCATED_IN]-(t2)`).
		Clause(`WITH t2, sharedConditions, collect(DISTINCT l.locationId) AS sharedLocations`).
		Clause(`WITH t2, sharedConditions, sharedLocations,
     (size(sharedConditions) * 3 + size(sharedLocations)) AS relationshipScore`).
		Clause(`WHERE t2 IS NOT NULL AND relationshipScore > 0`).
		Clause(`RETURN t2.nctId AS nctId,
       t2.title AS title,
       t2.status AS status,
       t2.phase AS phase,
       sharedConditions,
       sharedLocations,
       relationshipScore`).
		Clause(`ORDER BY relationshipScore DESC`).
		Clause(`LIMIT $limit`).
		Param("nctId", nctID).
		Param("limit", int64(limit))

	records, err := s.read(ctx, cq.Text(), cq.Params())
	if err != nil {
		return nil, err
	}

	out := make([]domain.RelatedTrial, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.RelatedTrial{
			NCTID:            recString(rec, "nctId"),
			Title:            recString(rec, "title"),
			Status:           recString(rec, "status"),
			Phase:            recStrings(rec, "phase"),
			SharedConditions: recStrings(rec, "sharedConditions"),
			SharedLocations:  recStrings(rec, "sharedLocations"),
			Score:            recInt64(rec, "relationshipScore"),
		})
	}
	return out, nil
}

// PatientRecommendations scores recruiting trials by how many of the
// patient's conditions they treat. Trials the patient already saved are
// excluded without affecting other candidates' scores.
func (s *Store) PatientRecommendations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	cq := newCypherQuery().
		Clause(`MATCH (p:Patient {userId: $userId})`).
		Clause(`MATCH (p)-[:HAS_CONDITION]->(pc:Condition)`).
		Clause(`MATCH (t:Trial)-[:TREATS]->(pc)`).
		Clause(`WHERE t.status = $status AND NOT (p)-[:SAVED_TRIAL]->(t)`).
		Clause(`WITH t, collect(DISTINCT pc.name) AS matchingConditions`).
		Clause(`WHERE size(matchingConditions) > 0`).
		Clause(`RETURN t.nctId AS nctId,
       t.title AS title,
       t.status AS status,
       t.phase AS phase,
       matchingConditions,
       size(matchingConditions) AS matchScore`).
		Clause(`ORDER BY matchScore DESC`).
		Clause(`LIMIT $limit`).
		Param("userId", userID.String()).
		Param("status", domain.StatusRecruiting).
		Param("limit", int64(limit))

	records, err := s.read(ctx, cq.Text(), cq.Params())
	if err != nil {
		return nil, err
	}

	out := make([]domain.Recommendation, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Recommendation{
			NCTID:              recString(rec, "nctId"),
			Title:              recString(rec, "title"),
			Status:             recString(rec, "status"),
			Phase:              recStrings(rec, "phase"),
			MatchingConditions: recStrings(rec, "matchingConditions"),
			Score:              recInt64(rec, "matchScore"),
		})
	}
	return out, nil
}

// ConditionHierarchy walks IS_SUBTYPE_OF transitively in both directions.
// Lookup is case-insensitive via the normalized name.
func (s *Store) ConditionHierarchy(ctx context.Context, name string) (domain.ConditionHierarchy, error) {
	normalized := domain.ConditionNode{Name: name}.NormalizedName()

	cq := newCypherQuery().
		Clause(`MATCH (c:Condition {nameNormalized: $nameNormalized})`).
		Clause(`OPTIONAL MATCH (c)-[:IS_SUBTYPE_OF*]->(parent:Condition)`).
		Clause(`OPTIONAL MATCH (child:Condition)-[:IS_SUBTYPE_OF*]->(c)`).
		Clause(`RETURN c.name AS condition,
       collect(DISTINCT parent.name) AS parents,
       collect(DISTINCT child.name) AS children`).
		Param("nameNormalized", normalized)

	records, err := s.read(ctx, cq.Text(), cq.Params())
	if err != nil {
		return domain.ConditionHierarchy{}, err
	}
	if len(records) == 0 {
		return domain.ConditionHierarchy{Condition: name, Parents: []string{}, Children: []string{}}, nil
	}

	rec := records[0]
	hier := domain.ConditionHierarchy{
		Condition: recString(rec, "condition"),
		Parents:   recStrings(rec, "parents"),
		Children:  recStrings(rec, "children"),
	}
	if hier.Parents == nil {
		hier.Parents = []string{}
	}
	if hier.Children == nil {
		hier.Children = []string{}
	}
	return hier, nil
}

// Stats counts nodes and relationships by type.
func (s *Store) Stats(ctx context.Context) (domain.GraphStats, error) {
	counts := []struct {
		query string
		dest  *int64
	}{
		{`MATCH (n) RETURN count(n) AS count`, nil},
		{`MATCH ()-[r]->() RETURN count(r) AS count`, nil},
		{`MATCH (t:Trial) RETURN count(t) AS count`, nil},
		{`MATCH (c:Condition) RETURN count(c) AS count`, nil},
		{`MATCH (l:Location) RETURN count(l) AS count`, nil},
		{`MATCH (p:Patient) RETURN count(p) AS count`, nil},
	}

	var stats domain.GraphStats
	counts[0].dest = &stats.Nodes
	counts[1].dest = &stats.Relationships
	counts[2].dest = &stats.Trials
	counts[3].dest = &stats.Conditions
	counts[4].dest = &stats.Locations
	counts[5].dest = &stats.Patients

	for _, c := range counts {
		records, err := s.read(ctx, c.query, nil)
		if err != nil {
			return domain.GraphStats{}, err
		}
		if len(records) > 0 {
			*c.dest = recInt64(records[0], "count")
		}
	}
	return stats, nil
}

// Haversine is the great-circle distance in kilometers between two points.
// Reserved for the eventual maxDistance radius filter.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	lat1, lon1, lat2, lon2 = rad(lat1), rad(lon1), rad(lat2), rad(lon2)

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return earthRadiusKM * 2 * math.Asin(math.Sqrt(a))
}
