// Package models holds the unified entity and screening data model shared
// across ingestion and matching.
package models

import "strings"

// Source identifies which sanctions list an entity was loaded from.
type Source string

const (
	SourceOFAC Source = "OFAC"
	SourceUN   Source = "UN"
)

// EntityType classifies the kind of sanctioned party.
type EntityType string

const (
	EntityIndividual EntityType = "individual"
	EntityEntity     EntityType = "entity"
	EntityVessel     EntityType = "vessel"
	EntityAircraft    EntityType = "aircraft"
)

// IdentityDocument is a single document (passport, national ID, ...)
// associated with an entity.
type IdentityDocument struct {
	Type             string
	Number           string
	IssuingCountry   string
	IssueDate        string
	ExpirationDate   string
	Note             string
}

// FeatureKind enumerates the semi-structured "feature" kinds a source may
// attach to an entity. This replaces ad hoc attribute probing with an
// enumerated schema.
type FeatureKind string

const (
	FeatureDateOfBirth          FeatureKind = "date_of_birth"
	FeaturePlaceOfBirth         FeatureKind = "place_of_birth"
	FeatureNationality          FeatureKind = "nationality"
	FeatureCitizenship          FeatureKind = "citizenship"
	FeatureGender               FeatureKind = "gender"
	FeatureTitle                FeatureKind = "title"
	FeatureVesselIMO            FeatureKind = "vessel_imo"
	FeatureAircraftRegistration FeatureKind = "aircraft_registration"
	FeatureCryptoAddress        FeatureKind = "crypto_address"
	FeatureOther                FeatureKind = "other"
)

// Feature is one raw (type, value) pair extracted from a source, tagged
// with its enumerated Kind once classified.
type Feature struct {
	Kind        FeatureKind
	Type        string
	Value       string
	Reliability string
}

// Address is one postal address associated with an entity.
type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Postal  string
	Country string
	Region  string
}

// Relationship is an advisory (not scored) link to another entity.
type Relationship struct {
	RelatedEntityID  string
	RelationshipType string
	From             string
	To               string
}

// SanctionsEntity is one sanctioned party, canonicalized from a source list.
type SanctionsEntity struct {
	ExternalID string
	Source     Source
	EntityType EntityType

	PrimaryName string
	AllNames    []string // all_names[0] == PrimaryName, duplicates removed preserving order
	Aliases     []string // AllNames[1:]

	FirstName string
	LastName  string

	IdentityDocuments []IdentityDocument
	Features          []Feature

	// Derived scalars, extracted from Features when present.
	DateOfBirth           string
	PlaceOfBirth          string
	Nationality           string
	Citizenship           string
	Gender                string
	Title                 string
	VesselIMO             string
	AircraftRegistration  string

	Addresses []Address
	Countries []string // deduplicated union of nationality, citizenship, address countries

	SanctionsPrograms []string
	UNListType        string
	UNCountryCode     string
	UNCommittee       string
	UNReferenceNumber string

	Relationships []Relationship
}

// AddName appends name to AllNames if not already present (surrounding
// whitespace trimmed, then compared case-insensitively), preserving first-seen order.
// The first name ever added becomes PrimaryName.
func (e *SanctionsEntity) AddName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range e.AllNames {
		if strings.EqualFold(existing, name) {
			return
		}
	}
	e.AllNames = append(e.AllNames, name)
	if e.PrimaryName == "" {
		e.PrimaryName = name
	}
	if len(e.AllNames) > 1 {
		e.Aliases = e.AllNames[1:]
	}
}

// AddCountry adds a country to the deduplicated Countries set
// (case-insensitive).
func (e *SanctionsEntity) AddCountry(country string) {
	country = strings.TrimSpace(country)
	if country == "" {
		return
	}
	for _, existing := range e.Countries {
		if strings.EqualFold(existing, country) {
			return
		}
	}
	e.Countries = append(e.Countries, country)
}

// ApplyFeature classifies a raw feature by a case-insensitive substring
// match on its Type and folds it into the entity's derived scalars.
func (e *SanctionsEntity) ApplyFeature(f Feature) {
	f.Kind = classifyFeatureType(f.Type)
	e.Features = append(e.Features, f)

	switch f.Kind {
	case FeatureDateOfBirth:
		if e.DateOfBirth == "" {
			e.DateOfBirth = f.Value
		}
	case FeaturePlaceOfBirth:
		if e.PlaceOfBirth == "" {
			e.PlaceOfBirth = f.Value
		}
	case FeatureNationality:
		if e.Nationality == "" {
			e.Nationality = f.Value
		}
		e.AddCountry(f.Value)
	case FeatureCitizenship:
		if e.Citizenship == "" {
			e.Citizenship = f.Value
		}
		e.AddCountry(f.Value)
	case FeatureGender:
		if e.Gender == "" {
			e.Gender = f.Value
		}
	case FeatureTitle:
		if e.Title == "" {
			e.Title = f.Value
		}
	case FeatureVesselIMO:
		if e.VesselIMO == "" {
			e.VesselIMO = f.Value
		}
	case FeatureAircraftRegistration:
		if e.AircraftRegistration == "" {
			e.AircraftRegistration = f.Value
		}
	}
}

// classifyFeatureType maps a source-provided feature type string onto the
// enumerated FeatureKind schema via a single case-insensitive substring
// rule.
func classifyFeatureType(rawType string) FeatureKind {
	t := strings.ToLower(rawType)
	switch {
	case strings.Contains(t, "birth date") || strings.Contains(t, "date of birth") || strings.Contains(t, "dob"):
		return FeatureDateOfBirth
	case strings.Contains(t, "place of birth") || strings.Contains(t, "pob"):
		return FeaturePlaceOfBirth
	case strings.Contains(t, "nationality"):
		return FeatureNationality
	case strings.Contains(t, "citizenship"):
		return FeatureCitizenship
	case strings.Contains(t, "gender") || strings.Contains(t, "sex"):
		return FeatureGender
	case strings.Contains(t, "title"):
		return FeatureTitle
	case strings.Contains(t, "vessel") && strings.Contains(t, "imo"):
		return FeatureVesselIMO
	case strings.Contains(t, "aircraft") && (strings.Contains(t, "registration") || strings.Contains(t, "tail")):
		return FeatureAircraftRegistration
	case strings.Contains(t, "digital currency") || strings.Contains(t, "crypto"):
		return FeatureCryptoAddress
	default:
		return FeatureOther
	}
}

// FinalizeCountries folds Nationality/Citizenship/address countries into
// the deduplicated Countries union.
func (e *SanctionsEntity) FinalizeCountries() {
	e.AddCountry(e.Nationality)
	e.AddCountry(e.Citizenship)
	for _, a := range e.Addresses {
		e.AddCountry(a.Country)
	}
}
