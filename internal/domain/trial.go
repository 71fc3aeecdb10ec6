package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Trial statuses mirror the origin registry's vocabulary. The set is
// open-ended; these constants only name the values this backend branches on.
const (
	StatusRecruiting = "RECRUITING"
	StatusCompleted  = "COMPLETED"
)

// Provenance of a match result: served from the graph index or fetched live
// from the origin registry.
const (
	SourceGraph       = "graph"
	SourceAPIFallback = "api_fallback"
)

var ErrMissingIdentifier = errors.New("trial record has no NCT identifier")

// Study is the typed subset of an origin registry record this backend reads.
// Raw carries the full payload through the cache unmodified.
type Study struct {
	ProtocolSection ProtocolSection `json:"protocolSection"`
	Raw             json.RawMessage `json:"-"`
}

type ProtocolSection struct {
	Identification    IdentificationModule    `json:"identificationModule"`
	Status            StatusModule            `json:"statusModule"`
	Conditions        ConditionsModule        `json:"conditionsModule"`
	Design            DesignModule            `json:"designModule"`
	ContactsLocations ContactsLocationsModule `json:"contactsLocationsModule"`
}

type IdentificationModule struct {
	NCTID      string `json:"nctId"`
	BriefTitle string `json:"briefTitle"`
}

type StatusModule struct {
	OverallStatus  string `json:"overallStatus"`
	LastUpdateDate string `json:"lastUpdateSubmitDate,omitempty"`
}

type ConditionsModule struct {
	Conditions []string `json:"conditions"`
}

type DesignModule struct {
	Phases []string `json:"phases"`
}

type ContactsLocationsModule struct {
	Locations []StudyLocation `json:"locations"`
}

type StudyLocation struct {
	City     string    `json:"city"`
	State    string    `json:"state,omitempty"`
	Country  string    `json:"country,omitempty"`
	GeoPoint *GeoPoint `json:"geoPoint,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *Study) NCTID() string  { return s.ProtocolSection.Identification.NCTID }
func (s *Study) Title() string  { return s.ProtocolSection.Identification.BriefTitle }
func (s *Study) Status() string { return s.ProtocolSection.Status.OverallStatus }
func (s *Study) Phases() []string {
	return s.ProtocolSection.Design.Phases
}
func (s *Study) Conditions() []string {
	return s.ProtocolSection.Conditions.Conditions
}

// LocationIDs returns the "City, Region" composite identities of the study's
// sites. A site without a city, or with neither state nor country, has no
// identity and is dropped.
func (s *Study) LocationIDs() []string {
	locs := s.ProtocolSection.ContactsLocations.Locations
	out := make([]string, 0, len(locs))
	seen := make(map[string]struct{}, len(locs))
	for _, loc := range locs {
		id := FormatLocationID(loc.City, loc.State, loc.Country)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FormatLocationID builds the composite location identity: state wins over
// country when both are present.
func FormatLocationID(city, state, country string) string {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	country = strings.TrimSpace(country)
	switch {
	case city != "" && state != "":
		return fmt.Sprintf("%s, %s", city, state)
	case city != "" && country != "":
		return fmt.Sprintf("%s, %s", city, country)
	default:
		return ""
	}
}

// SearchableFields are derived from the origin payload at cache time so
// cache queries never parse the raw record.
type SearchableFields struct {
	Conditions []string `json:"conditions"`
	Locations  []string `json:"locations"`
	Status     string   `json:"status"`
	Phase      []string `json:"phase"`
}

// CacheDocument is the persisted cache shape: one per NCT id.
type CacheDocument struct {
	NCTID      string           `json:"nctId"`
	Record     json.RawMessage  `json:"record"`
	CachedAt   time.Time        `json:"cachedAt"`
	Searchable SearchableFields `json:"searchableFields"`
}

// NewCacheDocument derives a cache document from an origin study. A study
// without an NCT id cannot be cached.
func NewCacheDocument(study *Study, now time.Time) (*CacheDocument, error) {
	if study == nil || strings.TrimSpace(study.NCTID()) == "" {
		return nil, ErrMissingIdentifier
	}
	record := study.Raw
	if len(record) == 0 {
		raw, err := json.Marshal(study)
		if err != nil {
			return nil, fmt.Errorf("marshal study record: %w", err)
		}
		record = raw
	}
	return &CacheDocument{
		NCTID:    study.NCTID(),
		Record:   record,
		CachedAt: now.UTC(),
		Searchable: SearchableFields{
			Conditions: append([]string(nil), study.Conditions()...),
			Locations:  study.LocationIDs(),
			Status:     study.Status(),
			Phase:      append([]string(nil), study.Phases()...),
		},
	}, nil
}

// Expired reports whether the document is older than the expiry window.
func (d *CacheDocument) Expired(now time.Time, window time.Duration) bool {
	return d.CachedAt.Before(now.Add(-window))
}

type CacheStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

// TrialMatch is the uniform result shape of a match request, regardless of
// whether it came from the graph or an origin fallback.
type TrialMatch struct {
	NCTID  string   `json:"nctId"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Phase  []string `json:"phase"`
	Score  int64    `json:"score"`
}

type RelatedTrial struct {
	NCTID            string   `json:"nctId"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	Phase            []string `json:"phase"`
	SharedConditions []string `json:"sharedConditions"`
	SharedLocations  []string `json:"sharedLocations"`
	Score            int64    `json:"score"`
}

type Recommendation struct {
	NCTID              string   `json:"nctId"`
	Title              string   `json:"title"`
	Status             string   `json:"status"`
	Phase              []string `json:"phase"`
	MatchingConditions []string `json:"matchingConditions"`
	Score              int64    `json:"score"`
}

type ConditionHierarchy struct {
	Condition string   `json:"condition"`
	Parents   []string `json:"parents"`
	Children  []string `json:"children"`
}

type GraphStats struct {
	Nodes         int64 `json:"nodes"`
	Relationships int64 `json:"relationships"`
	Trials        int64 `json:"trials"`
	Conditions    int64 `json:"conditions"`
	Locations     int64 `json:"locations"`
	Patients      int64 `json:"patients"`
}
