package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"nanopatterns/internal/bytecode"
	"nanopatterns/internal/classfile"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the methods of classes",
		Long: `List every method declared by the classes in a class file, jar or
directory, with its access flags. Abstract methods are marked with '*'.`,
		Example: `
# Methods of every class in a jar
nanopatterns list app.jar
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(cmd); err != nil {
				return err
			}
			raws, err := classfile.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, raw := range raws {
				c, err := classfile.Parse(raw.Data)
				if err != nil {
					slog.Warn("skipping class", "path", raw.Path, "error", err)
					continue
				}
				writeClassListing(w, c)
			}
			return nil
		},
	}
}

func writeClassListing(w io.Writer, c *classfile.Class) {
	kind := "class"
	if c.IsInterface() {
		kind = "interface"
	}
	fmt.Fprintf(w, "%s %s", kind, bytecode.JavaName(c.Name))
	if c.Super != "" {
		fmt.Fprintf(w, " extends %s", bytecode.JavaName(c.Super))
	}
	fmt.Fprintln(w)

	for _, m := range c.Methods {
		mark := " "
		if m.IsAbstract() {
			mark = "*"
		}
		flags := m.Flags()
		if flags != "" {
			flags += " "
		}
		fmt.Fprintf(w, "%s %s%s%s\n", mark, flags, m.Name, m.Desc)
	}
}
