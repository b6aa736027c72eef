package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/classfile"
	"nanopatterns/internal/scan"
	"nanopatterns/internal/ui/colorize"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <path> <method[:desc]>",
		Short: "Show the decoded instruction stream of a method",
		Long: `Print the instruction stream the analysis sees for every method
matching name or name:descriptor in a class file, jar or directory, followed
by the nanopatterns it exhibits.`,
		Example: `
# Decoded body of every area method
nanopatterns disasm build/classes area

# One overload
nanopatterns disasm Shape.class 'area:()D'
  `,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if !term.IsTerminal(os.Stdout.Fd()) {
				os.Setenv("NANOPATTERNS_NO_COLOR", "1")
			}

			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			raws, err := classfile.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			target := scan.Target{Method: args[1]}
			w := cmd.OutOrStdout()
			found := 0
			for _, raw := range raws {
				c, err := classfile.Parse(raw.Data)
				if err != nil {
					slog.Warn("skipping class", "path", raw.Path, "error", err)
					continue
				}
				for _, m := range c.Methods {
					if !target.MatchMethod(m.Name, m.Desc) {
						continue
					}
					found++
					stream, err := m.Decode()
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s.%s%s\n", c.Name, m.Name, m.Desc)
					if len(stream) == 0 {
						fmt.Fprintf(w, "  no code (%s)\n\n", m.Flags())
						continue
					}
					listing, err := colorize.Listing(formatListing(stream))
					if err != nil {
						slog.Debug("colorize failed", "error", err)
					}
					fmt.Fprintln(w, listing)

					facts, err := analysis.FactsFor(c.Name, m.Name, m.Desc, len(m.Exceptions))
					if err != nil {
						return err
					}
					result, _ := s.analyzer.Analyze(stream, facts)
					cols := patternColumns(scan.MethodReport{Result: result})
					fmt.Fprintf(w, "patterns: %s\n\n", strings.Join(cols, " "))
				}
			}
			if found == 0 {
				return fmt.Errorf("no method %q in %s", args[1], args[0])
			}
			return nil
		},
	}
}
