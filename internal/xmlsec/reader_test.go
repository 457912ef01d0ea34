package xmlsec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sanctions-screening/internal/models"
)

func writeTempXML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestIterStreamRejectsDoctype(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<!DOCTYPE foo [ <!ENTITY xxe SYSTEM "file:///etc/passwd"> ]>
<root><item>&xxe;</item></root>`)

	r := NewReader()
	err := r.IterStream(path, "", func(Event) error { return nil })
	if err == nil {
		t.Fatal("expected DOCTYPE to be rejected")
	}
	coreErr, ok := err.(*models.CoreError)
	if !ok {
		t.Fatalf("expected *models.CoreError, got %T", err)
	}
	if coreErr.Code != models.ErrXXEBlocked {
		t.Fatalf("expected XXE_BLOCKED, got %s", coreErr.Code)
	}
}

func TestIterStreamRejectsDoctypeMidStream(t *testing.T) {
	// No DOCTYPE in the scan window but one shows up once decoding begins.
	path := writeTempXML(t, `<?xml version="1.0"?>
<root>`+strings.Repeat(" ", 70*1024)+`
<!DOCTYPE foo>
</root>`)

	r := NewReader()
	err := r.IterStream(path, "", func(Event) error { return nil })
	if err == nil {
		t.Fatal("expected mid-stream DOCTYPE to be rejected")
	}
}

func TestIterStreamYieldsFilteredElements(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<root>
	<entity id="1"><name>Alpha</name></entity>
	<entity id="2"><name>Beta</name></entity>
	<other>ignore me</other>
</root>`)

	r := NewReader()
	var starts int
	err := r.IterStream(path, "entity", func(ev Event) error {
		if ev.Start != nil {
			starts++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if starts != 2 {
		t.Fatalf("expected 2 <entity> start events, got %d", starts)
	}
}

func TestIterStreamRejectsOversizedFile(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?><root><a>x</a></root>`)

	r := &Reader{MaxFileSize: 4, MaxElements: DefaultMaxElements}
	err := r.IterStream(path, "", func(Event) error { return nil })
	if err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
}

func TestIterStreamRejectsTooManyElements(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?><root><a/><b/><c/></root>`)

	r := &Reader{MaxFileSize: DefaultMaxFileSize, MaxElements: 2}
	err := r.IterStream(path, "", func(Event) error { return nil })
	if err == nil {
		t.Fatal("expected element-count ceiling to be enforced")
	}
	coreErr, ok := err.(*models.CoreError)
	if !ok || coreErr.Code != models.ErrParseXML {
		t.Fatalf("expected PARSE_XML, got %v", err)
	}
}

func TestRootNamespace(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<sdn:Sanctions xmlns:sdn="https://example.org/sdn">
	<sdn:entity/>
</sdn:Sanctions>`)

	ns, err := RootNamespace(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns != "{https://example.org/sdn}" {
		t.Fatalf("expected namespace wrapper, got %q", ns)
	}
}

func TestParseFullReturnsRoot(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?><root attr="v"><child/></root>`)

	r := NewReader()
	_, root, err := r.ParseFull(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Name.Local != "root" {
		t.Fatalf("expected root element, got %q", root.Name.Local)
	}
}
