package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keithlinneman/zuga-web/internal/content"
)

func newMigrateTypeCmd(root *rootOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "migrate-type FILE...",
		Short: "Rewrite hierarchical type/category frontmatter to the flat page type",
		Long: `migrate-type maps the hierarchical home/section/detail classification
with its category back to a single flat page type and drops the category,
subcategory and legacy_type keys. Nothing is written without --write.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed, changed int
			for _, path := range args {
				c, err := migrateFile(path, write)
				switch {
				case err != nil:
					failed++
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
				case c == nil:
					fmt.Fprintf(out, "%s: already flat\n", path)
				default:
					changed++
					fmt.Fprintf(out, "%s: %s\n", path, c)
				}
			}
			if !write && changed > 0 {
				fmt.Fprintf(out, "dry run: %d of %d files would change, rerun with --write\n", changed, len(args))
			}
			root.logger.Debug(root.context(cmd), "migrate-type finished",
				"files", len(args),
				"changed", changed,
				"failed", failed,
				"write", write,
			)
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be migrated", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write changes back to the files")
	return cmd
}

func migrateFile(path string, write bool) (*content.TypeChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, change, err := content.MigrateType(data)
	if err != nil || change == nil || !write {
		return change, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return change, os.WriteFile(path, out, st.Mode().Perm())
}
