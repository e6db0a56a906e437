// Package processes assembles the built-in knowledge base: the Michigan and
// federal processes, the shared applicant field catalog, and the form
// template manifests the packet compiler fills.
package processes

import (
	"embed"
	"io/fs"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/processes/federal"
	"github.com/kingrea/waypoint/internal/processes/michigan"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// RegisterBuiltins installs every built-in process, guide and field into the
// provided registry.
func RegisterBuiltins(reg *catalog.Registry) {
	if reg == nil {
		return
	}
	michigan.Register(reg)
	federal.Register(reg)
	for _, field := range Fields() {
		reg.MustRegisterField(field)
	}
}

// Default returns a registry holding the built-in knowledge base.
func Default() *catalog.Registry {
	reg := catalog.NewRegistry()
	RegisterBuiltins(reg)
	return reg
}

// Templates exposes the embedded template manifests rooted at their
// directory, so a manifest for id "mi-pc51" lives at "mi-pc51.yaml".
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
