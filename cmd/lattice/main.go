package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lattice/internal/ir"
	"lattice/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice IR context and dialect toolkit",
	Long:  `Lattice builds, inspects and evaluates uniqued IR owned by a context`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dialectsCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(statsCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("disable-threading", false, "force every context into single-threaded mode")

	cobra.OnInitialize(func() {
		if disable, _ := rootCmd.PersistentFlags().GetBool("disable-threading"); disable {
			ir.DisableThreadingGlobally()
		}
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color tri-state against the output terminal.
func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout)
}
