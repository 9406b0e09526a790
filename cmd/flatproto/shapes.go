package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/flatproto/registry"
)

func newShapesCmd(g *globalFlags) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "shapes [message...]",
		Short: "List loaded message shapes",
		Long:  "Lists every loaded message, or prints the named ones as YAML shape documents with --yaml.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()

			names := args
			if len(names) == 0 {
				names = a.proto.ListMessages()
			}
			out := cmd.OutOrStdout()
			if !asYAML {
				for _, name := range names {
					c, err := a.proto.Codec(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%d fields\n", c.Name(), len(c.Shape().Fields))
				}
				return nil
			}

			doc := registry.ShapeFile{}
			for _, name := range names {
				c, err := a.proto.Codec(name)
				if err != nil {
					return err
				}
				doc.Messages = append(doc.Messages, c.Shape())
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML shape documents")
	return cmd
}
