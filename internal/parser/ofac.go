package parser

import (
	"strings"

	"sanctions-screening/internal/models"
	"sanctions-screening/internal/xmlsec"
)

// ofacTranslation mirrors names/name/translations/translation.
type ofacTranslation struct {
	FormattedFullName  string `xml:"formattedFullName"`
	FormattedFirstName string `xml:"formattedFirstName"`
	FormattedLastName  string `xml:"formattedLastName"`
}

type ofacName struct {
	Translations []ofacTranslation `xml:"translations>translation"`
}

type ofacIdentityDocument struct {
	Type           string `xml:"type"`
	DocumentNumber string `xml:"documentNumber"`
	IssuingCountry string `xml:"issuingCountry"`
	IssueDate      string `xml:"issueDate"`
	ExpirationDate string `xml:"expirationDate"`
}

type ofacFeatureType struct {
	FeatureTypeID string `xml:"featureTypeId,attr"`
	Value         string `xml:",chardata"`
}

type ofacFeature struct {
	Type        ofacFeatureType `xml:"type"`
	Value       string          `xml:"value"`
	Reliability string          `xml:"reliability"`
}

type ofacAddress struct {
	AddressLine1   string `xml:"addressLine1"`
	AddressLine2   string `xml:"addressLine2"`
	City           string `xml:"city"`
	StateOrProvince string `xml:"stateOrProvince"`
	PostalCode     string `xml:"postalCode"`
	Country        string `xml:"country"`
}

type ofacRelatedEntity struct {
	EntityID string `xml:"entityId,attr"`
}

type ofacRelationship struct {
	RelatedEntity    ofacRelatedEntity `xml:"relatedEntity"`
	RelationshipType string            `xml:"relationshipType"`
}

// ofacEntity mirrors the documented OFAC Enhanced XML schema for a
// single <entity>.
type ofacEntity struct {
	ID                string                 `xml:"id,attr"`
	EntityType        string                 `xml:"entityType"`
	Names             []ofacName             `xml:"names>name"`
	IdentityDocuments []ofacIdentityDocument `xml:"identityDocuments>identityDocument"`
	Features          []ofacFeature          `xml:"features>feature"`
	Addresses         []ofacAddress          `xml:"addresses>address"`
	Relationships     []ofacRelationship     `xml:"relationships>relationship"`
	SanctionsPrograms []string               `xml:"sanctionsPrograms>sanctionsProgram"`
}

// OFACParser extracts entities from an OFAC SDN Enhanced XML document.
type OFACParser struct {
	Reader *xmlsec.Reader
}

// NewOFACParser builds an OFACParser with default hardening bounds.
func NewOFACParser() *OFACParser {
	return &OFACParser{Reader: xmlsec.NewReader()}
}

// Parse streams over every <entity> element (matched on local name, so
// the dynamically-extracted namespace prefix does not matter) and
// invokes cb once per canonicalized entity. Entities without any
// extractable name are dropped.
func (p *OFACParser) Parse(path string, cb func(models.SanctionsEntity) error) error {
	return p.Reader.IterStream(path, "entity", func(ev xmlsec.Event) error {
		if ev.Start == nil {
			return nil
		}
		var raw ofacEntity
		if err := xmlsec.DecodeElement(ev.Decoder, *ev.Start, &raw); err != nil {
			return err
		}
		entity, ok := convertOFACEntity(raw)
		if !ok {
			return nil
		}
		return cb(entity)
	})
}

// convertOFACEntity canonicalizes one raw OFAC <entity> into the unified
// model, dropping entities without any extractable name.
func convertOFACEntity(raw ofacEntity) (models.SanctionsEntity, bool) {
	entity := models.SanctionsEntity{
		ExternalID: raw.ID,
		Source:     models.SourceOFAC,
		EntityType: classifyOFACEntityType(raw.EntityType),
	}

	for _, name := range raw.Names {
		for _, t := range name.Translations {
			if full := strings.TrimSpace(t.FormattedFullName); full != "" {
				entity.AddName(full)
			}
			if entity.FirstName == "" && t.FormattedFirstName != "" {
				entity.FirstName = strings.TrimSpace(t.FormattedFirstName)
			}
			if entity.LastName == "" && t.FormattedLastName != "" {
				entity.LastName = strings.TrimSpace(t.FormattedLastName)
			}
		}
	}
	if len(entity.AllNames) == 0 {
		return models.SanctionsEntity{}, false
	}

	for _, doc := range raw.IdentityDocuments {
		entity.IdentityDocuments = append(entity.IdentityDocuments, models.IdentityDocument{
			Type:           strings.TrimSpace(doc.Type),
			Number:         strings.TrimSpace(doc.DocumentNumber),
			IssuingCountry: strings.TrimSpace(doc.IssuingCountry),
			IssueDate:      strings.TrimSpace(doc.IssueDate),
			ExpirationDate: strings.TrimSpace(doc.ExpirationDate),
		})
	}

	for _, feat := range raw.Features {
		featType := strings.TrimSpace(feat.Type.Value)
		if featType == "" {
			featType = strings.TrimSpace(feat.Type.FeatureTypeID)
		}
		entity.ApplyFeature(models.Feature{
			Type:        featType,
			Value:       strings.TrimSpace(feat.Value),
			Reliability: strings.TrimSpace(feat.Reliability),
		})
	}

	for _, addr := range raw.Addresses {
		entity.Addresses = append(entity.Addresses, models.Address{
			Line1:   strings.TrimSpace(addr.AddressLine1),
			Line2:   strings.TrimSpace(addr.AddressLine2),
			City:    strings.TrimSpace(addr.City),
			State:   strings.TrimSpace(addr.StateOrProvince),
			Postal:  strings.TrimSpace(addr.PostalCode),
			Country: strings.TrimSpace(addr.Country),
		})
	}

	for _, rel := range raw.Relationships {
		entity.Relationships = append(entity.Relationships, models.Relationship{
			RelatedEntityID:  strings.TrimSpace(rel.RelatedEntity.EntityID),
			RelationshipType: strings.TrimSpace(rel.RelationshipType),
		})
	}

	for _, prog := range raw.SanctionsPrograms {
		if p := strings.TrimSpace(prog); p != "" {
			entity.SanctionsPrograms = append(entity.SanctionsPrograms, p)
		}
	}

	entity.FinalizeCountries()
	return entity, true
}

func classifyOFACEntityType(raw string) models.EntityType {
	t := strings.ToLower(raw)
	switch {
	case strings.Contains(t, "vessel"):
		return models.EntityVessel
	case strings.Contains(t, "aircraft"):
		return models.EntityAircraft
	case strings.Contains(t, "individual"):
		return models.EntityIndividual
	default:
		return models.EntityEntity
	}
}
