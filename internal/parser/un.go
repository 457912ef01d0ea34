package parser

import (
	"regexp"
	"strings"

	"sanctions-screening/internal/models"
	"sanctions-screening/internal/xmlsec"
)

// unReferenceNumberPattern extracts {country_code, list_type, sequence}
// from a UN REFERENCE_NUMBER such as "QDi.123" or "SOe.045".
var unReferenceNumberPattern = regexp.MustCompile(`^([A-Z]{2})([ie])\.(\d+)$`)

type unDocument struct {
	TypeOfDocument string `xml:"TYPE_OF_DOCUMENT"`
	Number         string `xml:"NUMBER"`
	IssuingCountry string `xml:"ISSUING_COUNTRY"`
	DateOfIssue    string `xml:"DATE_OF_ISSUE"`
	Note           string `xml:"NOTE"`
}

type unNationality struct {
	Value string `xml:"VALUE"`
}

type unAddress struct {
	City    string `xml:"CITY"`
	Street  string `xml:"STREET"`
	State   string `xml:"STATE_PROVINCE"`
	Country string `xml:"COUNTRY"`
	Note    string `xml:"NOTE"`
}

// unIndividual mirrors the INDIVIDUALS/INDIVIDUAL shape.
type unIndividual struct {
	DataID            string        `xml:"DATAID"`
	FirstName         string        `xml:"FIRST_NAME"`
	SecondName        string        `xml:"SECOND_NAME"`
	ThirdName         string        `xml:"THIRD_NAME"`
	FourthName        string        `xml:"FOURTH_NAME"`
	Aliases           []string      `xml:"INDIVIDUAL_ALIAS>ALIAS_NAME"`
	DateOfBirth       string        `xml:"DATE_OF_BIRTH"`
	Nationalities     []unNationality `xml:"NATIONALITY"`
	Documents         []unDocument  `xml:"INDIVIDUAL_DOCUMENT"`
	Addresses         []unAddress   `xml:"INDIVIDUAL_ADDRESS"`
	UNListType        string        `xml:"UN_LIST_TYPE"`
	ReferenceNumber   string        `xml:"REFERENCE_NUMBER"`
}

// unEntity mirrors the ENTITIES/ENTITY shape.
type unEntity struct {
	DataID          string      `xml:"DATAID"`
	FirstName       string      `xml:"FIRST_NAME"`
	Aliases         []string    `xml:"ENTITY_ALIAS>ALIAS_NAME"`
	Addresses       []unAddress `xml:"ENTITY_ADDRESS"`
	UNListType      string      `xml:"UN_LIST_TYPE"`
	ReferenceNumber string      `xml:"REFERENCE_NUMBER"`
}

// UNParser extracts entities from a UN Consolidated List XML document.
type UNParser struct {
	Reader *xmlsec.Reader

	loggedCountryCodes map[string]bool
	loggedListTypes    map[string]bool
	onUnknown          func(kind, value string)
}

// NewUNParser builds a UNParser with default hardening bounds. onUnknown,
// if non-nil, is invoked the first time an unrecognized country code or
// list type is encountered.
func NewUNParser(onUnknown func(kind, value string)) *UNParser {
	return &UNParser{
		Reader:             xmlsec.NewReader(),
		loggedCountryCodes: make(map[string]bool),
		loggedListTypes:    make(map[string]bool),
		onUnknown:          onUnknown,
	}
}

// knownListTypes are the UN sanctions regimes this engine recognizes by
// their REFERENCE_NUMBER letter code; anything else is still parsed but
// triggers the onUnknown callback once.
var knownListTypes = map[string]bool{
	"QD": true, // Al-Qaida
	"TA": true, // Taliban
	"SO": true, // Somalia
	"LY": true, // Libya
}

// Parse streams both INDIVIDUALS/INDIVIDUAL and ENTITIES/ENTITY subtrees.
func (p *UNParser) Parse(path string, cb func(models.SanctionsEntity) error) error {
	err := p.Reader.IterStream(path, "INDIVIDUAL", func(ev xmlsec.Event) error {
		if ev.Start == nil {
			return nil
		}
		var raw unIndividual
		if err := xmlsec.DecodeElement(ev.Decoder, *ev.Start, &raw); err != nil {
			return err
		}
		entity, ok := p.convertIndividual(raw)
		if !ok {
			return nil
		}
		return cb(entity)
	})
	if err != nil {
		return err
	}

	return p.Reader.IterStream(path, "ENTITY", func(ev xmlsec.Event) error {
		if ev.Start == nil {
			return nil
		}
		var raw unEntity
		if err := xmlsec.DecodeElement(ev.Decoder, *ev.Start, &raw); err != nil {
			return err
		}
		entity, ok := p.convertEntity(raw)
		if !ok {
			return nil
		}
		return cb(entity)
	})
}

func (p *UNParser) convertIndividual(raw unIndividual) (models.SanctionsEntity, bool) {
	entity := models.SanctionsEntity{
		ExternalID: raw.DataID,
		Source:     models.SourceUN,
		EntityType: models.EntityIndividual,
	}

	fullName := joinNonEmpty(raw.FirstName, raw.SecondName, raw.ThirdName, raw.FourthName)
	if fullName != "" {
		entity.AddName(fullName)
	}
	for _, alias := range raw.Aliases {
		if a := strings.TrimSpace(alias); a != "" {
			entity.AddName(a)
		}
	}
	if len(entity.AllNames) == 0 {
		return models.SanctionsEntity{}, false
	}

	entity.FirstName = strings.TrimSpace(raw.FirstName)
	switch {
	case strings.TrimSpace(raw.FourthName) != "":
		entity.LastName = strings.TrimSpace(raw.FourthName)
	case strings.TrimSpace(raw.ThirdName) != "":
		entity.LastName = strings.TrimSpace(raw.ThirdName)
	case strings.TrimSpace(raw.SecondName) != "":
		entity.LastName = strings.TrimSpace(raw.SecondName)
	}

	entity.DateOfBirth = strings.TrimSpace(raw.DateOfBirth)
	for _, n := range raw.Nationalities {
		if v := strings.TrimSpace(n.Value); v != "" {
			if entity.Nationality == "" {
				entity.Nationality = v
			}
			entity.AddCountry(v)
		}
	}

	for _, doc := range raw.Documents {
		entity.IdentityDocuments = append(entity.IdentityDocuments, models.IdentityDocument{
			Type:           strings.TrimSpace(doc.TypeOfDocument),
			Number:         strings.TrimSpace(doc.Number),
			IssuingCountry: strings.TrimSpace(doc.IssuingCountry),
			IssueDate:      strings.TrimSpace(doc.DateOfIssue),
			Note:           strings.TrimSpace(doc.Note),
		})
	}

	for _, addr := range raw.Addresses {
		entity.Addresses = append(entity.Addresses, models.Address{
			Line1:   strings.TrimSpace(addr.Street),
			City:    strings.TrimSpace(addr.City),
			State:   strings.TrimSpace(addr.State),
			Country: strings.TrimSpace(addr.Country),
		})
	}

	p.applyReferenceNumber(&entity, raw.ReferenceNumber, raw.UNListType)
	entity.FinalizeCountries()
	return entity, true
}

func (p *UNParser) convertEntity(raw unEntity) (models.SanctionsEntity, bool) {
	entity := models.SanctionsEntity{
		ExternalID: raw.DataID,
		Source:     models.SourceUN,
		EntityType: models.EntityEntity,
	}

	if name := strings.TrimSpace(raw.FirstName); name != "" {
		entity.AddName(name)
	}
	for _, alias := range raw.Aliases {
		if a := strings.TrimSpace(alias); a != "" {
			entity.AddName(a)
		}
	}
	if len(entity.AllNames) == 0 {
		return models.SanctionsEntity{}, false
	}

	for _, addr := range raw.Addresses {
		entity.Addresses = append(entity.Addresses, models.Address{
			Line1:   strings.TrimSpace(addr.Street),
			City:    strings.TrimSpace(addr.City),
			State:   strings.TrimSpace(addr.State),
			Country: strings.TrimSpace(addr.Country),
		})
	}

	p.applyReferenceNumber(&entity, raw.ReferenceNumber, raw.UNListType)
	entity.FinalizeCountries()
	return entity, true
}

// applyReferenceNumber parses REFERENCE_NUMBER against
// `^([A-Z]{2})([ie])\.(\d+)$` and folds the result into the entity,
// preferring UN_LIST_TYPE as the authoritative committee string.
func (p *UNParser) applyReferenceNumber(entity *models.SanctionsEntity, ref, listType string) {
	entity.SanctionsPrograms = append(entity.SanctionsPrograms, "UN")
	entity.UNListType = strings.TrimSpace(listType)

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return
	}
	entity.UNReferenceNumber = ref

	m := unReferenceNumberPattern.FindStringSubmatch(ref)
	if m == nil {
		return
	}
	countryCode, listCode := m[1], m[2]
	entity.UNCountryCode = countryCode
	entity.UNCommittee = entity.UNListType
	if entity.UNCommittee == "" {
		entity.UNCommittee = countryCode + listCode
	}

	if !knownListTypes[countryCode] {
		p.logOnce(p.loggedCountryCodes, countryCode, "unknown_country_code")
	}
	if entity.UNListType == "" {
		p.logOnce(p.loggedListTypes, listCode, "unknown_list_type")
	}
}

func (p *UNParser) logOnce(seen map[string]bool, key, kind string) {
	if seen[key] {
		return
	}
	seen[key] = true
	if p.onUnknown != nil {
		p.onUnknown(kind, key)
	}
}

func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return strings.Join(nonEmpty, " ")
}
