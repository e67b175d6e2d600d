package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keithlinneman/zuga-web/internal/render"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show LANG SLUG",
		Short: "Print one validated document as JSON",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLanguage(args[0])
			if err != nil {
				return err
			}
			l, err := root.loader()
			if err != nil {
				return err
			}
			doc, err := l.LoadOne(root.context(cmd), lang, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if html {
				body, err := render.New().HTML(doc.Body)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, body)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(doc)
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "print the rendered, sanitized body instead")
	return cmd
}
