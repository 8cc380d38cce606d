package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"lattice/internal/ir"
)

var statsCachePath string

func init() {
	statsCmd.Flags().StringVar(&statsCachePath, "cache", "", "msgpack snapshot file to diff against and update")
}

// contextStats is the msgpack snapshot written by --cache.
type contextStats struct {
	RegistryHash uint64    `msgpack:"registry_hash"`
	Dialects     []string  `msgpack:"dialects"`
	Operations   int       `msgpack:"operations"`
	Taken        time.Time `msgpack:"taken"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a fully loaded context",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildContext()
		if err != nil {
			return err
		}
		c.LoadAllAvailableDialects()

		current := contextStats{
			RegistryHash: c.RegistryHash(),
			Operations:   len(ir.RegisteredOperations(c)),
			Taken:        time.Now().UTC(),
		}
		for _, d := range c.LoadedDialects() {
			current.Dialects = append(current.Dialects, d.Namespace())
		}

		out := cmd.OutOrStdout()
		color.NoColor = !colorEnabled(cmd)
		keyColor := color.New(color.FgGreen)

		keyColor.Fprint(out, "registry hash: ")
		fmt.Fprintf(out, "%016x\n", current.RegistryHash)
		keyColor.Fprint(out, "dialects:      ")
		fmt.Fprintln(out, current.Dialects)
		keyColor.Fprint(out, "operations:    ")
		fmt.Fprintln(out, current.Operations)

		if statsCachePath == "" {
			return nil
		}
		previous, found, err := readStatsCache(statsCachePath)
		if err != nil {
			return err
		}
		if found {
			if previous.RegistryHash == current.RegistryHash {
				fmt.Fprintf(out, "unchanged since %s\n", previous.Taken.Format(time.RFC3339))
			} else {
				fmt.Fprintf(out, "changed since %s (was %016x)\n",
					previous.Taken.Format(time.RFC3339), previous.RegistryHash)
			}
		}
		return writeStatsCache(statsCachePath, current)
	},
}

func readStatsCache(path string) (contextStats, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return contextStats{}, false, nil
	}
	if err != nil {
		return contextStats{}, false, fmt.Errorf("reading stats cache: %w", err)
	}
	var stats contextStats
	if err := msgpack.Unmarshal(data, &stats); err != nil {
		return contextStats{}, false, fmt.Errorf("%s: corrupt stats cache: %w", path, err)
	}
	return stats, true, nil
}

func writeStatsCache(path string, stats contextStats) error {
	data, err := msgpack.Marshal(stats)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing stats cache: %w", err)
	}
	return nil
}
