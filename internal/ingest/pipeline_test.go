package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sanctions-screening/internal/config"
)

const pipelineSampleOFAC = `<?xml version="1.0"?>
<sdn:Sanctions xmlns:sdn="https://example.org/sdn">
<sdn:entities>
<sdn:entity id="1">
	<sdn:entityType>Individual</sdn:entityType>
	<sdn:names><sdn:name><sdn:translations><sdn:translation>
		<sdn:formattedFullName>Test Person</sdn:formattedFullName>
	</sdn:translation></sdn:translations></sdn:name></sdn:names>
</sdn:entity>
</sdn:entities>
</sdn:Sanctions>`

func buildZip(t *testing.T, xmlContent string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("sdn.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(xmlContent)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestPipelineRunBuildsIndex(t *testing.T) {
	zipBytes := buildZip(t, pipelineSampleOFAC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBytes)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Data.DataDir = t.TempDir()
	cfg.Data.Sources = []config.DataSourceConfig{{Name: "ofac", URL: srv.URL}}
	cfg.Data.MalformedEntityThreshold = 1.0

	p := NewPipeline(cfg, nil)
	idx, stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.EntityCount != 1 {
		t.Fatalf("expected 1 entity, got %d", stats.EntityCount)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected index to contain 1 entity, got %d", idx.Len())
	}
}

func TestPipelineRunPropagatesFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Data.DataDir = t.TempDir()
	cfg.Data.Sources = []config.DataSourceConfig{{Name: "ofac", URL: srv.URL}}

	p := NewPipeline(cfg, nil)
	_, _, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected fetch failure to propagate")
	}
}
