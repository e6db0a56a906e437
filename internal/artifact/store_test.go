package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedStore(t *testing.T) *Store {
	t.Helper()
	created := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	return NewStore(t.TempDir(), WithClock(func() time.Time { return created }))
}

func TestWriteJSONRoundTripsMetadata(t *testing.T) {
	store := fixedStore(t)
	session := store.Session("abc")
	body := []byte(`{"targets":["passport"],"answers":{"county":"Ingham"}}`)
	meta := Metadata{SessionID: "abc", Version: "1", Targets: []string{"passport"}}
	if err := store.Write(session, AnswersJSON, body, meta); err != nil {
		t.Fatalf("write: %v", err)
	}
	result, err := store.Check(session, AnswersJSON)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.State != StateReady || result.Metadata == nil {
		t.Fatalf("expected ready artifact, got %+v", result)
	}
	if result.Metadata.SessionID != "abc" || len(result.Metadata.Targets) != 1 {
		t.Fatalf("unexpected metadata %+v", result.Metadata)
	}

	raw, _, err := store.Read(session, AnswersJSON)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded[metadataKey]; ok {
		t.Fatalf("metadata block should be stripped on read")
	}
	if decoded["answers"].(map[string]any)["county"] != "Ingham" {
		t.Fatalf("unexpected body %v", decoded)
	}
}

func TestWriteDocumentUsesFrontMatter(t *testing.T) {
	store := fixedStore(t)
	session := store.Session("abc")
	packet := &PacketRecord{ID: "pkt-1", Checksum: Checksum([]byte("%PDF-1.3")), Documents: []string{"ds-11", "ss-5"}}
	meta := Metadata{SessionID: "abc", Version: "1", Targets: []string{"passport"}, Packet: packet}
	if err := store.Write(session, PacketSummary, []byte("# Document packet\n"), meta); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(PacketSummary.Path(session))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\nwaypoint:\n") {
		t.Fatalf("expected waypoint frontmatter, got %q", data)
	}
	body, got, err := store.Read(session, PacketSummary)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "# Document packet\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if !got.CreatedAt.Equal(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created %v", got.CreatedAt)
	}
	if diff := cmp.Diff(packet, got.Packet); diff != "" {
		t.Fatalf("packet record mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), "  packet:\n    id: pkt-1\n") {
		t.Fatalf("expected nested packet header, got %q", data)
	}
}

func TestParseFrontMatterErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{name: "empty", content: "", want: ErrMissingFrontMatter},
		{name: "no fence", content: "# Document packet\n", want: ErrMissingFrontMatter},
		{name: "unterminated", content: "---\nwaypoint:\n  artifact: x\n", want: ErrMalformedFrontMatter},
		{name: "foreign header", content: "---\ntitle: notes\n---\nbody", want: ErrMalformedFrontMatter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseFrontMatter([]byte(tc.content))
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	crlf := "---\r\nwaypoint:\r\n  artifact: packet-summary\r\n  session: abc\r\n  version: \"1\"\r\n  created: 2024-06-01T12:00:00Z\r\n---\r\nbody"
	meta, body, err := ParseFrontMatter([]byte(crlf))
	if err != nil {
		t.Fatalf("crlf: %v", err)
	}
	if meta.SessionID != "abc" || meta.Packet != nil || string(body) != "body" {
		t.Fatalf("unexpected crlf parse %+v %q", meta, body)
	}

	incomplete := "---\nwaypoint:\n  artifact: packet-summary\n---\n"
	if _, _, err := ParseFrontMatter([]byte(incomplete)); err == nil {
		t.Fatalf("expected incomplete header to fail")
	}
}

func TestWriteRejectsIncompleteMetadata(t *testing.T) {
	store := fixedStore(t)
	if err := store.Write(store.Session("abc"), AnswersJSON, nil, Metadata{Version: "1"}); err == nil {
		t.Fatalf("expected missing session id to fail")
	}
}

func TestBinaryArtifacts(t *testing.T) {
	store := fixedStore(t)
	session := store.Session("abc")
	result, err := store.Check(session, PacketPDF)
	if err != nil || result.State != StateMissing {
		t.Fatalf("expected missing pdf, got %+v %v", result, err)
	}
	if err := store.Write(session, PacketPDF, []byte("%PDF-1.3"), Metadata{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	result, err = store.Check(session, PacketPDF)
	if err != nil || result.State != StateReady {
		t.Fatalf("expected ready pdf, got %+v %v", result, err)
	}
	if Checksum([]byte("%PDF-1.3")) == "" {
		t.Fatalf("expected checksum")
	}
}

func TestSessionsListsSavedAnswers(t *testing.T) {
	store := fixedStore(t)
	for _, id := range []string{"first", "second"} {
		if err := store.Write(store.Session(id), AnswersJSON, []byte(`{}`), Metadata{SessionID: id, Version: "1"}); err != nil {
			t.Fatalf("write %s: %v", id, err)
		}
	}
	if err := os.MkdirAll(store.Session("empty").Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(AnswersJSON.Path(store.Session("first")), later, later); err != nil {
		t.Fatal(err)
	}
	ids, err := store.Sessions()
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(ids) != 2 || ids[0] != "first" || ids[1] != "second" {
		t.Fatalf("unexpected sessions %v", ids)
	}
}

func TestLookupRegisteredRefs(t *testing.T) {
	for _, id := range []string{"answers", "packet-summary", "packet-pdf"} {
		ref, ok := Lookup(id)
		if !ok {
			t.Fatalf("expected %s to be registered", id)
		}
		if err := ref.Validate(); err != nil {
			t.Fatalf("%s: %v", id, err)
		}
	}
	if AnswersJSON.Path(Session{}) != "" {
		t.Fatalf("empty session should not resolve a path")
	}
}
