package main

import (
	"fmt"

	"lattice/internal/dialects/calc"
	"lattice/internal/ir"
)

// buildRegistry returns the registry of every dialect this binary links.
func buildRegistry() *ir.DialectRegistry {
	var reg ir.DialectRegistry
	calc.Register(&reg)
	return &reg
}

// buildContext creates a context configured from the optional lattice.toml.
// Dialects listed in the manifest are loaded eagerly; the rest stay lazy.
func buildContext() (*ir.Context, error) {
	opts := []ir.ContextOption{ir.WithRegistry(buildRegistry())}

	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return nil, err
	}
	if found && manifest.Config.Context.DisableThreading {
		opts = append(opts, ir.WithoutThreading())
	}

	c := ir.NewContext(opts...)
	if !found {
		return c, nil
	}

	if manifest.Config.Context.AllowUnregistered {
		c.AllowUnregisteredDialects(true)
	}
	for _, name := range manifest.Config.Context.Dialects {
		if c.GetOrLoadDialect(name) == nil {
			return nil, fmt.Errorf("%s: unknown dialect %q", manifest.Path, name)
		}
	}
	return c, nil
}
