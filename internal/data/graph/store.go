package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/clinect/clinect-backend/internal/domain"
	"github.com/clinect/clinect-backend/internal/platform/logger"
	"github.com/clinect/clinect-backend/internal/platform/neo4jdb"
)

// Store is the trial property graph: Trial, Condition, Location and Patient
// nodes plus their typed relationships. Every write is a MERGE on the
// node's natural key, so repeated upserts never duplicate.
type Store struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewStore(client *neo4jdb.Client, log *logger.Logger) *Store {
	return &Store{
		client: client,
		log:    log.With("store", "TrialGraph"),
	}
}

// Available reports whether a graph backend was configured at all.
func (s *Store) Available() bool {
	return s != nil && s.client != nil && s.client.Driver != nil
}

// EnsureSchema creates the uniqueness constraints and lookup indexes.
// Best-effort: restricted users may not be allowed to manage schema, and
// the store still works without it.
func (s *Store) EnsureSchema(ctx context.Context) {
	if !s.Available() {
		return
	}
	statements := []string{
		`CREATE CONSTRAINT trial_nct_id IF NOT EXISTS FOR (t:Trial) REQUIRE t.nctId IS UNIQUE`,
		`CREATE CONSTRAINT condition_name_normalized IF NOT EXISTS FOR (c:Condition) REQUIRE c.nameNormalized IS UNIQUE`,
		`CREATE CONSTRAINT location_id IF NOT EXISTS FOR (l:Location) REQUIRE l.locationId IS UNIQUE`,
		`CREATE CONSTRAINT patient_user_id IF NOT EXISTS FOR (p:Patient) REQUIRE p.userId IS UNIQUE`,
		`CREATE INDEX trial_status IF NOT EXISTS FOR (t:Trial) ON (t.status)`,
		`CREATE INDEX condition_category IF NOT EXISTS FOR (c:Condition) ON (c.category)`,
		`CREATE INDEX location_city IF NOT EXISTS FOR (l:Location) ON (l.city)`,
	}

	session := s.writeSession(ctx)
	defer session.Close(ctx)
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("graph schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

// -- Node upserts ----------------------------------------------------------

func (s *Store) UpsertTrial(ctx context.Context, t domain.TrialNode) error {
	if t.NCTID == "" {
		return domain.ErrMissingIdentifier
	}
	return s.write(ctx, `
MERGE (t:Trial {nctId: $nctId})
SET t.title = $title,
    t.status = $status,
    t.phase = $phase,
    t.updatedAt = datetime()
`, map[string]any{
		"nctId":  t.NCTID,
		"title":  t.Title,
		"status": t.Status,
		"phase":  stringList(t.Phase),
	})
}

// UpsertCondition merges on the lowercase name so "Diabetes" and "diabetes"
// are one node; the first writer's casing becomes the display name.
func (s *Store) UpsertCondition(ctx context.Context, c domain.ConditionNode) error {
	if c.NormalizedName() == "" {
		return fmt.Errorf("graph: condition name required")
	}
	return s.write(ctx, `
MERGE (c:Condition {nameNormalized: $nameNormalized})
ON CREATE SET c.name = $name
SET c.category = $category
`, map[string]any{
		"nameNormalized": c.NormalizedName(),
		"name":           c.Name,
		"category":       nullable(c.Category),
	})
}

func (s *Store) UpsertLocation(ctx context.Context, l domain.LocationNode) error {
	locationID := l.ID()
	if locationID == "" {
		return fmt.Errorf("graph: location needs city plus state or country")
	}
	return s.write(ctx, `
MERGE (l:Location {locationId: $locationId})
SET l.city = $city,
    l.state = $state,
    l.country = $country,
    l.latitude = $lat,
    l.longitude = $lon
`, map[string]any{
		"locationId": locationID,
		"city":       l.City,
		"state":      nullable(l.State),
		"country":    nullable(l.Country),
		"lat":        nullableFloat(l.Lat),
		"lon":        nullableFloat(l.Lon),
	})
}

func (s *Store) UpsertPatient(ctx context.Context, p domain.PatientNode) error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("graph: patient user id required")
	}
	var age any
	if p.Age != nil {
		age = int64(*p.Age)
	}
	return s.write(ctx, `
MERGE (p:Patient {userId: $userId})
SET p.age = $age,
    p.gender = $gender,
    p.updatedAt = datetime()
`, map[string]any{
		"userId": p.UserID.String(),
		"age":    age,
		"gender": nullable(p.Gender),
	})
}

// -- Relationship upserts --------------------------------------------------

func (s *Store) LinkTrialCondition(ctx context.Context, nctID, conditionName string) error {
	return s.write(ctx, `
MATCH (t:Trial {nctId: $nctId})
MATCH (c:Condition {nameNormalized: $nameNormalized})
MERGE (t)-[:TREATS]->(c)
`, map[string]any{
		"nctId":          nctID,
		"nameNormalized": domain.ConditionNode{Name: conditionName}.NormalizedName(),
	})
}

func (s *Store) LinkTrialLocation(ctx context.Context, nctID, locationID string) error {
	return s.write(ctx, `
MATCH (t:Trial {nctId: $nctId})
MATCH (l:Location {locationId: $locationId})
MERGE (t)-[:LOCATED_IN]->(l)
`, map[string]any{
		"nctId":      nctID,
		"locationId": locationID,
	})
}

func (s *Store) LinkPatientCondition(ctx context.Context, userID uuid.UUID, conditionName string) error {
	cond := domain.ConditionNode{Name: conditionName}
	if cond.NormalizedName() == "" {
		return fmt.Errorf("graph: condition name required")
	}
	return s.write(ctx, `
MATCH (p:Patient {userId: $userId})
MERGE (c:Condition {nameNormalized: $nameNormalized})
ON CREATE SET c.name = $name
MERGE (p)-[:HAS_CONDITION]->(c)
`, map[string]any{
		"userId":         userID.String(),
		"nameNormalized": cond.NormalizedName(),
		"name":           conditionName,
	})
}

func (s *Store) LinkPatientLocation(ctx context.Context, userID uuid.UUID, locationID string) error {
	return s.write(ctx, `
MATCH (p:Patient {userId: $userId})
MATCH (l:Location {locationId: $locationId})
MERGE (p)-[:LIVES_IN]->(l)
`, map[string]any{
		"userId":     userID.String(),
		"locationId": locationID,
	})
}

func (s *Store) LinkPatientSavedTrial(ctx context.Context, userID uuid.UUID, nctID string) error {
	return s.write(ctx, `
MATCH (p:Patient {userId: $userId})
MATCH (t:Trial {nctId: $nctId})
MERGE (p)-[r:SAVED_TRIAL]->(t)
ON CREATE SET r.savedAt = datetime()
`, map[string]any{
		"userId": userID.String(),
		"nctId":  nctID,
	})
}

// LinkConditionParent records child IS_SUBTYPE_OF parent, merging both
// condition nodes so a hierarchy can be declared before any trial mentions
// either name.
func (s *Store) LinkConditionParent(ctx context.Context, childName, parentName string) error {
	child := domain.ConditionNode{Name: childName}
	parent := domain.ConditionNode{Name: parentName}
	if child.NormalizedName() == "" || parent.NormalizedName() == "" {
		return fmt.Errorf("graph: hierarchy link needs both condition names")
	}
	if child.NormalizedName() == parent.NormalizedName() {
		return fmt.Errorf("graph: condition cannot be its own parent")
	}
	return s.write(ctx, `
MERGE (child:Condition {nameNormalized: $childNormalized})
ON CREATE SET child.name = $childName
MERGE (parent:Condition {nameNormalized: $parentNormalized})
ON CREATE SET parent.name = $parentName
MERGE (child)-[:IS_SUBTYPE_OF]->(parent)
`, map[string]any{
		"childNormalized":  child.NormalizedName(),
		"childName":        childName,
		"parentNormalized": parent.NormalizedName(),
		"parentName":       parentName,
	})
}

// -- Session plumbing ------------------------------------------------------

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
}

func (s *Store) write(ctx context.Context, text string, params map[string]any) error {
	if !s.Available() {
		return fmt.Errorf("graph: store not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, text, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (s *Store) read(ctx context.Context, text string, params map[string]any) ([]*neo4j.Record, error) {
	if !s.Available() {
		return nil, fmt.Errorf("graph: store not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, text, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

// -- Record helpers --------------------------------------------------------

func recString(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func recInt64(rec *neo4j.Record, key string) int64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		}
	}
	return 0
}

func recStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
