package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/version"
)

type rootOptions struct {
	root    string
	verbose bool
	logger  log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "zugactl",
		Short:         "Validate and inspect zuga content",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errUsage("no command given")
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			lvl := slog.LevelWarn
			if opts.verbose {
				lvl = slog.LevelDebug
			}
			lg, err := log.New(log.Options{
				App:     "zugactl",
				Version: version.Version,
				Commit:  version.Commit,
				Level:   lvl,
				Writer:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			opts.logger = lg
			return nil
		},
	}
	cmd.SetFlagErrorFunc(flagUsageError)
	cmd.PersistentFlags().StringVar(&opts.root, "root", "content", "content root directory (one folder per language)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(
		newCheckCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newMigrateTypeCmd(opts),
	)
	return cmd
}

// loader opens --root and returns a loader over it.
func (o *rootOptions) loader() (*content.Loader, error) {
	snap, err := bundle.OpenDir(o.root)
	if err != nil {
		return nil, err
	}
	return content.NewLoader(content.LoaderOptions{Root: snap.FS, Logger: o.logger})
}

func (o *rootOptions) context(cmd *cobra.Command) context.Context {
	return log.WithContext(cmd.Context(), o.logger)
}

func parseLanguage(s string) (content.Language, error) {
	lang := content.Language(s)
	if !lang.Valid() {
		return "", errUsage("unsupported language %q (want et or en)", s)
	}
	return lang, nil
}
