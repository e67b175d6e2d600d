package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keithlinneman/zuga-web/internal/content"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every content file and cross-check slugs and translations",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := root.loader()
			if err != nil {
				return err
			}
			rep, err := content.Check(root.context(cmd), l)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				for _, issue := range rep.Issues {
					fmt.Fprintln(out, issue.String())
				}
				fmt.Fprintf(out, "%d documents, %d errors, %d warnings\n",
					rep.Documents, len(rep.Errors()), len(rep.Issues)-len(rep.Errors()))
			}
			if !rep.OK() {
				return fmt.Errorf("content check failed with %d errors", len(rep.Errors()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
