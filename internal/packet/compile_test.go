package packet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/processes"
	"github.com/kingrea/waypoint/internal/resolver"
)

func fixedClock() time.Time {
	return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func embedded() Source {
	return NewFSSource("embedded", processes.Templates())
}

func TestBuiltinCatalogMatchesTemplates(t *testing.T) {
	if err := CheckCatalog(context.Background(), embedded(), processes.Default().Processes()); err != nil {
		t.Fatalf("catalog and templates disagree: %v", err)
	}
}

func TestCompileSampleNameChange(t *testing.T) {
	reg := processes.Default()
	procs := resolver.ResolveDependencies(reg, []catalog.Target{catalog.TargetNameChange})
	m := metrics.New()
	compiler := NewCompiler(embedded(),
		WithGuides(reg),
		WithMetrics(m),
		WithClock(fixedClock),
		WithIDs(func() string { return "pkt-1" }),
	)
	pkt, err := compiler.Compile(context.Background(), procs, applicant.Sample())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var ids []string
	for _, entry := range pkt.Entries {
		ids = append(ids, entry.DocumentID)
	}
	if diff := cmp.Diff([]string{"pc51", "mc97", "publication-notice", "ri-030"}, ids); diff != "" {
		t.Fatalf("unexpected documents (-want +got):\n%s", diff)
	}
	if pkt.ID != "pkt-1" || !pkt.Created.Equal(fixedClock()) {
		t.Fatalf("unexpected packet identity %s %s", pkt.ID, pkt.Created)
	}
	if !bytes.HasPrefix(pkt.PDF, []byte("%PDF-")) {
		t.Fatalf("expected PDF output")
	}

	petition := pkt.Entries[0]
	got := map[string]Value{}
	for _, v := range petition.Values {
		got[v.Field] = v
	}
	if got["petitioner_name"].Text != "Alex Jordan Rivera" {
		t.Fatalf("petitioner_name = %q", got["petitioner_name"].Text)
	}
	if got["new_name"].Text != "Avery Jordan Rivera" {
		t.Fatalf("new_name = %q", got["new_name"].Text)
	}
	if got["city_state_zip"].Text != "Lansing, MI 48933" {
		t.Fatalf("city_state_zip = %q", got["city_state_zip"].Text)
	}
	if !got["no_record"].Checked || got["has_record"].Checked {
		t.Fatalf("criminal record boxes wrong: %+v %+v", got["no_record"], got["has_record"])
	}
	if petition.Guide == "" {
		t.Fatalf("expected petition guide text")
	}
	if pkt.Entries[2].Template != nil || pkt.Entries[2].Guide == "" {
		t.Fatalf("publication notice should be guide only")
	}
	if n := testutil.ToFloat64(m.Packets.WithLabelValues("ok")); n != 1 {
		t.Fatalf("packets ok = %v", n)
	}
	if n := testutil.ToFloat64(m.TemplateFetches.WithLabelValues("embedded", "ok")); n != 3 {
		t.Fatalf("template fetches = %v, want 3", n)
	}
	if !strings.Contains(pkt.Summary(), "Petition to Change Name (PC 51)") {
		t.Fatalf("summary missing petition:\n%s", pkt.Summary())
	}
}

func TestCompileMinorUsesMinorPetition(t *testing.T) {
	reg := processes.Default()
	procs := resolver.ResolveDependencies(reg, []catalog.Target{catalog.TargetNameChange})
	person := applicant.Sample()
	person.Set(applicant.PathBirthdate, "2012-03-04")
	person.Set(applicant.PathParentName, "Sam Rivera")

	pkt, err := NewCompiler(embedded(), WithClock(fixedClock)).Compile(context.Background(), procs, person)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var ids []string
	for _, entry := range pkt.Entries {
		ids = append(ids, entry.DocumentID)
	}
	if diff := cmp.Diff([]string{"pc51-minor", "mc97", "publication-notice"}, ids); diff != "" {
		t.Fatalf("unexpected documents (-want +got):\n%s", diff)
	}
	for _, v := range pkt.Entries[0].Values {
		if v.Field == "minor_age" && v.Text != "12" {
			t.Fatalf("minor_age = %q, want 12", v.Text)
		}
		if v.Field == "parent_name" && v.Text != "Sam Rivera" {
			t.Fatalf("parent_name = %q", v.Text)
		}
	}
}

func TestCompileFailsOnMissingTemplate(t *testing.T) {
	reg := processes.Default()
	procs := resolver.ResolveDependencies(reg, []catalog.Target{catalog.TargetPassport})
	m := metrics.New()
	_, err := NewCompiler(NewFSSource("dir", fstest.MapFS{}), WithMetrics(m)).Compile(context.Background(), procs, applicant.Sample())
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if n := testutil.ToFloat64(m.Packets.WithLabelValues("error")); n != 1 {
		t.Fatalf("packets error = %v", n)
	}
}

func TestCompileRejectsUnknownFields(t *testing.T) {
	proc := &catalog.Process{Target: "demo", Title: "Demo", Documents: []catalog.Document{{
		ID: "doc", Name: "Doc", Template: "mi-mc97",
		Fills: []catalog.Formfill{catalog.Answer("not_a_field", applicant.PathCounty)},
	}}}
	_, err := NewCompiler(embedded()).Compile(context.Background(), []*catalog.Process{proc}, applicant.New())
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestCompileEmptySelection(t *testing.T) {
	pkt, err := NewCompiler(embedded(), WithClock(fixedClock)).Compile(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(pkt.Entries) != 0 || len(pkt.PDF) == 0 {
		t.Fatalf("expected cover-only packet")
	}
	if !strings.Contains(pkt.Summary(), "No documents apply") {
		t.Fatalf("unexpected summary %q", pkt.Summary())
	}
}

func TestCompileHonorsCancelledContext(t *testing.T) {
	reg := processes.Default()
	procs := resolver.ResolveDependencies(reg, []catalog.Target{catalog.TargetStateID})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCompiler(embedded()).Compile(ctx, procs, applicant.Sample()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPSourceCachesManifests(t *testing.T) {
	var hits atomic.Int32
	files := http.FileServerFS(processes.Templates())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		files.ServeHTTP(w, r)
	}))
	defer srv.Close()

	source, err := NewHTTPSource(srv.URL+"/", 4, srv.Client())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	for i := 0; i < 3; i++ {
		tpl, err := source.Template(context.Background(), "mi-pc51")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if tpl.ID != "mi-pc51" {
			t.Fatalf("unexpected template %s", tpl.ID)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
	if _, err := source.Template(context.Background(), "missing-form"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, err := source.Template(context.Background(), "../secret"); err == nil {
		t.Fatalf("expected invalid id to be rejected")
	}
}

func TestNewHTTPSourceRejectsNonHTTP(t *testing.T) {
	if _, err := NewHTTPSource("file:///tmp", 1, nil); err == nil {
		t.Fatalf("expected scheme error")
	}
}
