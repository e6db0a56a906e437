package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/resolver"
	"github.com/kingrea/waypoint/internal/server"
	"github.com/kingrea/waypoint/internal/wizard"
)

func (c *cli) newResolveCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve TARGET...",
		Short: "List every process the chosen targets require",
		Long: `Resolves the chosen targets into the full set of processes they depend on.

Example:
  waypoint resolve social-security passport`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			targets, err := e.registry.ParseTargets(args)
			if err != nil {
				return err
			}
			procs := resolver.ResolveDependencies(e.registry, targets)
			e.metrics.ObserveResolution("cli", len(procs))
			implied := map[catalog.Target]bool{}
			for _, t := range resolver.Implied(e.registry, targets) {
				implied[t] = true
			}
			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					Target  string `json:"target"`
					Title   string `json:"title"`
					Implied bool   `json:"implied"`
				}
				rows := make([]row, 0, len(procs))
				for _, p := range resolver.FilingOrder(procs) {
					rows = append(rows, row{Target: string(p.Target), Title: p.Title, Implied: implied[p.Target]})
				}
				return writeJSON(out, rows)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tTARGET\tPROCESS\tWHY")
			for i, p := range resolver.FilingOrder(procs) {
				why := "selected"
				if implied[p.Target] {
					why = "required"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, p.Target, p.Title, why)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) newFieldsCmd() *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "fields TARGET...",
		Short: "List the questions the chosen targets need answered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			state, err := e.stateFor(args, answersPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tKIND\tQUESTION\tANSWER")
			for _, f := range state.NeededFields() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Kind, f.Title, state.Answer(f.Name))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "YAML or JSON file of answers keyed by field name")
	return cmd
}

func (c *cli) newCompileCmd() *cobra.Command {
	var answersPath string
	var sessionID string
	cmd := &cobra.Command{
		Use:   "compile [TARGET...]",
		Short: "Build the document packet PDF",
		Long: `Builds the packet of filled forms and guides for the chosen targets, or for a
saved session with --session, and saves it under .waypoint/sessions.

Example:
  waypoint compile name-change state-id --answers me.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			var state *wizard.State
			switch {
			case sessionID != "":
				state = e.newState()
				if err := e.sessions.Load(sessionID, state); err != nil {
					return err
				}
				if answersPath != "" {
					if err := submitFile(state, answersPath); err != nil {
						return err
					}
				}
			case len(args) > 0:
				state, err = e.stateFor(args, answersPath)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("compile: name at least one target or --session")
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			pkt, err := e.compiler.Compile(ctx, state.Processes(), state.Person())
			if err != nil {
				return err
			}
			result, err := e.sessions.SavePacket(state, pkt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %d document(s)\n", state.ID(), len(pkt.Entries))
			fmt.Fprintf(out, "PDF: %s\n", result.PDFPath)
			if result.OutputPath != "" {
				fmt.Fprintf(out, "Copy: %s\n", result.OutputPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "YAML or JSON file of answers keyed by field name")
	cmd.Flags().StringVar(&sessionID, "session", "", "compile a saved session")
	return cmd
}

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			srv := server.New(server.SettingsFromConfig(e.cfg), e.registry,
				server.WithCompiler(e.compiler),
				server.WithMetrics(e.metrics),
				server.WithLogger(e.log),
			)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.BaseURL())
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func (c *cli) newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the built-in process catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the catalog and its form templates agree",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			var errs []error
			if err := e.registry.Validate(); err != nil {
				errs = append(errs, err)
			}
			if err := packet.CheckCatalog(cmd.Context(), e.source, e.registry.Processes()); err != nil {
				errs = append(errs, err)
			}
			if err := errors.Join(errs...); err != nil {
				e.log.Error("catalog check failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d processes, %d fields, templates from %s\n",
				len(e.registry.Targets()), len(e.registry.Fields()), e.source.Name())
			return nil
		},
	})
	return cmd
}

func (c *cli) newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage where form templates come from",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "use SOURCE [PATH|URL]",
		Short: "Switch the template source (embedded, dir or http)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			location := ""
			if len(args) == 2 {
				location = args[1]
			}
			source := strings.ToLower(strings.TrimSpace(args[0]))
			switch source {
			case config.TemplateSourceEmbedded:
			case config.TemplateSourceDir, config.TemplateSourceHTTP:
				if location == "" {
					return fmt.Errorf("templates: %s source needs a location", source)
				}
			default:
				return fmt.Errorf("templates: unknown source %q", args[0])
			}
			if err := e.cfg.SetTemplateSource(source, location); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "templates: %s\n", source)
			return nil
		},
	})
	return cmd
}

func (c *cli) newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved wizard sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			ids, err := e.sessions.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No saved sessions.")
				return nil
			}
			for _, id := range ids {
				state := e.newState()
				if err := e.sessions.Load(id, state); err != nil {
					fmt.Fprintf(out, "%s\t(unreadable: %v)\n", id, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", id, state.Step(), strings.Join(state.Targets(), ", "))
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.load()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.sessions.Remove(args[0])
		},
	})
	return cmd
}

// stateFor builds a session for targets with answers from an optional file.
func (e *env) stateFor(args []string, answersPath string) (*wizard.State, error) {
	targets, err := e.registry.ParseTargets(args)
	if err != nil {
		return nil, err
	}
	state := e.newState()
	if err := state.Select(targets...); err != nil {
		return nil, err
	}
	if answersPath != "" {
		if err := submitFile(state, answersPath); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// submitFile reads a YAML or JSON map of field name to answer.
func submitFile(state *wizard.State, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse answers %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case nil:
			values[name] = ""
		case bool:
			values[name] = fmt.Sprintf("%t", v)
		case time.Time:
			values[name] = v.Format("2006-01-02")
		default:
			values[name] = fmt.Sprint(v)
		}
	}
	return state.Submit(values)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
