package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keithlinneman/zuga-web/internal/content"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var typ string
	var published bool
	cmd := &cobra.Command{
		Use:   "list LANG",
		Short: "List the documents of a language",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLanguage(args[0])
			if err != nil {
				return err
			}
			l, err := root.loader()
			if err != nil {
				return err
			}

			ctx := root.context(cmd)
			var docs []*content.Document
			if typ != "" {
				t := content.PageType(typ)
				if !t.Valid() {
					return errUsage("unknown page type %q", typ)
				}
				docs, err = l.LoadByType(ctx, lang, t)
			} else {
				docs, err = l.LoadAll(ctx, lang)
			}
			if err != nil {
				return err
			}
			if published {
				docs = content.Published(docs)
			}
			content.SortByOrder(docs)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTYPE\tSTATUS\tORDER\tTITLE")
			for _, d := range docs {
				fm := d.Frontmatter
				order := "-"
				if fm.Order != nil {
					order = fmt.Sprint(*fm.Order)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", fm.Slug, fm.Type, fm.Status, order, fm.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only documents of this page type")
	cmd.Flags().BoolVar(&published, "published", false, "hide drafts")
	return cmd
}
