package parser

import (
	"os"
	"path/filepath"
	"testing"

	"sanctions-screening/internal/models"
)

const sampleUN = `<?xml version="1.0"?>
<CONSOLIDATED_LIST dateGenerated="2026-01-01">
<INDIVIDUALS>
<INDIVIDUAL>
	<DATAID>QDi.123</DATAID>
	<FIRST_NAME>Jane</FIRST_NAME>
	<SECOND_NAME>Marie</SECOND_NAME>
	<THIRD_NAME>Doe</THIRD_NAME>
	<INDIVIDUAL_ALIAS><ALIAS_NAME>J. Doe</ALIAS_NAME></INDIVIDUAL_ALIAS>
	<DATE_OF_BIRTH>1975</DATE_OF_BIRTH>
	<NATIONALITY><VALUE>Mali</VALUE></NATIONALITY>
	<INDIVIDUAL_DOCUMENT>
		<TYPE_OF_DOCUMENT>Passport</TYPE_OF_DOCUMENT>
		<NUMBER>XY987654</NUMBER>
		<ISSUING_COUNTRY>Mali</ISSUING_COUNTRY>
	</INDIVIDUAL_DOCUMENT>
	<INDIVIDUAL_ADDRESS><CITY>Bamako</CITY><COUNTRY>Mali</COUNTRY></INDIVIDUAL_ADDRESS>
	<UN_LIST_TYPE>Al-Qaida</UN_LIST_TYPE>
	<REFERENCE_NUMBER>QDi.123</REFERENCE_NUMBER>
</INDIVIDUAL>
<INDIVIDUAL>
	<DATAID>XXi.999</DATAID>
	<FIRST_NAME></FIRST_NAME>
</INDIVIDUAL>
</INDIVIDUALS>
<ENTITIES>
<ENTITY>
	<DATAID>QDe.456</DATAID>
	<FIRST_NAME>Acme Shipping Co</FIRST_NAME>
	<ENTITY_ALIAS><ALIAS_NAME>Acme Shipping</ALIAS_NAME></ENTITY_ALIAS>
	<ENTITY_ADDRESS><CITY>Tripoli</CITY><COUNTRY>Libya</COUNTRY></ENTITY_ADDRESS>
	<UN_LIST_TYPE>Libya</UN_LIST_TYPE>
	<REFERENCE_NUMBER>LYe.045</REFERENCE_NUMBER>
</ENTITY>
</ENTITIES>
</CONSOLIDATED_LIST>`

func writeUNFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "un.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sample UN file: %v", err)
	}
	return path
}

func TestUNParserExtractsIndividualsAndEntities(t *testing.T) {
	path := writeUNFile(t, sampleUN)

	var unknowns []string
	p := NewUNParser(func(kind, value string) { unknowns = append(unknowns, kind+":"+value) })

	var entities []models.SanctionsEntity
	err := p.Parse(path, func(e models.SanctionsEntity) error {
		entities = append(entities, e)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities (nameless individual dropped), got %d", len(entities))
	}

	indiv := entities[0]
	if indiv.PrimaryName != "Jane Marie Doe" {
		t.Fatalf("expected concatenated name, got %q", indiv.PrimaryName)
	}
	if indiv.LastName != "Doe" {
		t.Fatalf("expected last name to fall back to THIRD_NAME, got %q", indiv.LastName)
	}
	if indiv.DateOfBirth != "1975" {
		t.Fatalf("expected DOB 1975, got %q", indiv.DateOfBirth)
	}
	if indiv.UNCountryCode != "QD" {
		t.Fatalf("expected country code QD, got %q", indiv.UNCountryCode)
	}
	if len(indiv.IdentityDocuments) != 1 || indiv.IdentityDocuments[0].Number != "XY987654" {
		t.Fatalf("expected one identity document, got %+v", indiv.IdentityDocuments)
	}
	hasAlias := false
	for _, n := range indiv.Aliases {
		if n == "J. Doe" {
			hasAlias = true
		}
	}
	if !hasAlias {
		t.Fatalf("expected alias J. Doe, got %v", indiv.Aliases)
	}

	entity := entities[1]
	if entity.PrimaryName != "Acme Shipping Co" {
		t.Fatalf("expected entity primary name, got %q", entity.PrimaryName)
	}
	if entity.UNCountryCode != "LY" {
		t.Fatalf("expected country code LY, got %q", entity.UNCountryCode)
	}
}

func TestUNParserLogsUnknownCountryCodeOnce(t *testing.T) {
	path := writeUNFile(t, `<?xml version="1.0"?>
<CONSOLIDATED_LIST>
<INDIVIDUALS>
<INDIVIDUAL>
	<DATAID>ZZi.1</DATAID>
	<FIRST_NAME>Unknown Person</FIRST_NAME>
	<UN_LIST_TYPE>Mystery</UN_LIST_TYPE>
	<REFERENCE_NUMBER>ZZi.001</REFERENCE_NUMBER>
</INDIVIDUAL>
<INDIVIDUAL>
	<DATAID>ZZi.2</DATAID>
	<FIRST_NAME>Unknown Person Two</FIRST_NAME>
	<UN_LIST_TYPE>Mystery</UN_LIST_TYPE>
	<REFERENCE_NUMBER>ZZi.002</REFERENCE_NUMBER>
</INDIVIDUAL>
</INDIVIDUALS>
<ENTITIES></ENTITIES>
</CONSOLIDATED_LIST>`)

	var unknowns []string
	p := NewUNParser(func(kind, value string) { unknowns = append(unknowns, kind+":"+value) })
	err := p.Parse(path, func(models.SanctionsEntity) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := 0
	for _, u := range unknowns {
		if u == "unknown_country_code:ZZ" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected ZZ to be logged exactly once, got %d (%v)", count, unknowns)
	}
}
