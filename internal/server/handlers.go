package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/resolver"
	"github.com/kingrea/waypoint/internal/wizard"
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return jsonName(field.Tag.Get("json"))
	})
}

type resolveRequest struct {
	Targets []string `json:"targets" validate:"required,min=1,max=16,dive,required,max=64"`
}

type answersRequest struct {
	Targets []string          `json:"targets" validate:"required,min=1,max=16,dive,required,max=64"`
	Answers map[string]string `json:"answers" validate:"omitempty,max=128,dive,keys,required,max=64,endkeys,max=512"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Processes     int    `json:"processes"`
}

type documentView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template,omitempty"`
	Guide    string `json:"guide,omitempty"`
}

type processView struct {
	Target       string         `json:"target"`
	Title        string         `json:"title"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Depends      []string       `json:"depends"`
	Documents    []documentView `json:"documents"`
}

type resolveResponse struct {
	Selected  []string      `json:"selected"`
	Implied   []string      `json:"implied"`
	Processes []processView `json:"processes"`
}

type optionView struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

type fieldView struct {
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Title   string       `json:"title"`
	Help    string       `json:"help,omitempty"`
	Kind    string       `json:"kind"`
	Options []optionView `json:"options,omitempty"`
	Value   string       `json:"value,omitempty"`
}

type fieldsResponse struct {
	Fields []fieldView `json:"fields"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Detail []string `json:"detail,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		UptimeSeconds: s.uptimeSeconds(),
	}
	if s.registry != nil {
		resp.Processes = len(s.registry.Targets())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	procs := s.registry.Processes()
	views := make([]processView, 0, len(procs))
	for _, proc := range procs {
		views = append(views, viewProcess(proc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"processes": views})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	targets, err := s.registry.ParseTargets(req.Targets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	procs := resolver.ResolveDependencies(s.registry, targets)
	s.metrics.ObserveResolution("api", len(procs))
	resp := resolveResponse{
		Selected:  targetStrings(targets),
		Implied:   targetStrings(resolver.Implied(s.registry, targets)),
		Processes: make([]processView, 0, len(procs)),
	}
	for _, proc := range procs {
		resp.Processes = append(resp.Processes, viewProcess(proc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	state, ok := s.session(w, r)
	if !ok {
		return
	}
	fields := state.NeededFields()
	resp := fieldsResponse{Fields: make([]fieldView, 0, len(fields))}
	for _, f := range fields {
		view := fieldView{
			Name:  f.Name,
			Path:  f.Path,
			Title: f.Title,
			Help:  f.Help,
			Kind:  string(f.Kind),
			Value: state.Answer(f.Name),
		}
		for _, opt := range f.Options {
			view.Options = append(view.Options, optionView{Value: opt.Value, Label: opt.Label})
		}
		resp.Fields = append(resp.Fields, view)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePacket(w http.ResponseWriter, r *http.Request) {
	if s.compiler == nil {
		writeError(w, http.StatusServiceUnavailable, "packet compiler not configured")
		return
	}
	state, ok := s.session(w, r)
	if !ok {
		return
	}
	pkt, err := s.compiler.Compile(r.Context(), state.Processes(), state.Person())
	if err != nil {
		s.logger.Printf("server: compile failed: %v", err)
		switch {
		case errors.Is(err, packet.ErrTemplateNotFound):
			writeError(w, http.StatusBadGateway, "form template unavailable")
		case r.Context().Err() != nil:
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "packet compilation failed")
		}
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "waypoint-"+pkt.ID+".pdf"))
	w.Header().Set("X-Packet-Id", pkt.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pkt.PDF)
}

// session builds a throwaway wizard session from an answers request.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*wizard.State, bool) {
	var req answersRequest
	if !s.decode(w, r, &req) {
		return nil, false
	}
	targets, err := s.registry.ParseTargets(req.Targets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	state := wizard.New(s.registry, wizard.WithClock(s.clock), wizard.WithMetrics(s.metrics))
	if err := state.Select(targets...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := state.Submit(req.Answers); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid answers", Detail: splitJoined(err)})
		return nil, false
	}
	return state, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "empty body")
		return false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload exceeds limit")
			return false
		}
		writeError(w, http.StatusBadRequest, "unable to read body")
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := requestValidate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Detail: describeValidation(err)})
		return false
	}
	return true
}

func describeValidation(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + " failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}

func splitJoined(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func viewProcess(proc *catalog.Process) processView {
	view := processView{
		Target:       string(proc.Target),
		Title:        proc.Title,
		Jurisdiction: string(proc.Jurisdiction),
		Summary:      proc.Summary,
		Depends:      targetStrings(proc.Depends),
		Documents:    make([]documentView, 0, len(proc.Documents)),
	}
	for _, doc := range proc.Documents {
		view.Documents = append(view.Documents, documentView{
			ID:       doc.ID,
			Name:     doc.Name,
			Template: doc.Template,
			Guide:    doc.Guide,
		})
	}
	return view
}

func targetStrings(targets []catalog.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, string(t))
	}
	return out
}

func jsonName(tag string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
