package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lattice/internal/version"
)

type versionPayload struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Built   string `json:"built,omitempty"`
}

var (
	versionFormat   string
	versionShowFull bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "show every recorded bit of build metadata")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show lattice build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(versionFormat) {
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout())
			return nil
		case "json":
			return renderVersionJSON(cmd.OutOrStdout())
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
	},
}

func renderVersionPretty(w io.Writer) {
	fmt.Fprintf(w, "lattice %s\n", version.Pretty())
	if versionShowFull {
		if version.Commit != "" {
			fmt.Fprintf(w, "  commit: %s\n", version.Commit)
		}
		if version.Date != "" {
			fmt.Fprintf(w, "  built:  %s\n", version.Date)
		}
	}
}

func renderVersionJSON(w io.Writer) error {
	payload := versionPayload{
		Tool:    "lattice",
		Version: version.Version,
	}
	if versionShowFull {
		payload.Commit = version.Commit
		payload.Built = version.Date
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
