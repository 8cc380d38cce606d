package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lattice/internal/ir"
)

var dialectsShowOps bool

func init() {
	dialectsCmd.Flags().BoolVar(&dialectsShowOps, "ops", false, "list registered operations per dialect")
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List available and loaded dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildContext()
		if err != nil {
			return err
		}
		c.LoadAllAvailableDialects()

		out := cmd.OutOrStdout()
		nameColor := color.New(color.FgCyan, color.Bold)
		dimColor := color.New(color.Faint)
		color.NoColor = !colorEnabled(cmd)

		fmt.Fprintf(out, "registry hash: %016x\n", c.RegistryHash())
		for _, d := range c.LoadedDialects() {
			nameColor.Fprint(out, d.Namespace())
			fmt.Fprintln(out)
			if !dialectsShowOps {
				continue
			}
			for _, rn := range ir.RegisteredOperations(c) {
				if rn.Dialect() != d {
					continue
				}
				fmt.Fprint(out, "  ", rn.Name())
				var marks []string
				if rn.HasTrait(ir.TraitTerminator) {
					marks = append(marks, "terminator")
				}
				if rn.HasTrait(ir.TraitCommutative) {
					marks = append(marks, "commutative")
				}
				if rn.HasTrait(ir.TraitConstantLike) {
					marks = append(marks, "constant-like")
				}
				if len(marks) > 0 {
					dimColor.Fprintf(out, "  (%s)", strings.Join(marks, ", "))
				}
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}
