package main

import (
	"context"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/cfg"
	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/metrics"
)

// openContent resolves the content root once at start-up.
func openContent(ctx context.Context, conf cfg.App, L log.Logger) (*bundle.Snapshot, error) {
	if conf.ContentSource != cfg.SourceS3 {
		snap, err := bundle.OpenDir(conf.ContentDir)
		if err != nil {
			return nil, err
		}
		L.Info(ctx, "serving content from directory",
			"location", snap.Meta.Location,
			"files", snap.Meta.Files,
		)
		return snap, nil
	}

	s3l, err := bundle.NewS3Loader(ctx, bundle.S3Options{
		Logger:   L.With("component", "bundle"),
		SSMParam: conf.ContentSSMParam,
		S3Bucket: conf.ContentS3Bucket,
		S3Prefix: conf.ContentS3Prefix,
	})
	if err != nil {
		return nil, err
	}
	snap, err := s3l.Load(ctx)
	if err != nil {
		return nil, err
	}
	L.Info(ctx, "serving content bundle",
		"location", snap.Meta.Location,
		"sha256", snap.Meta.SHA256,
		"files", snap.Meta.Files,
	)
	return snap, nil
}

// checkContent runs the integrity check and publishes its counts.
func checkContent(ctx context.Context, l *content.Loader, m *metrics.ServerMetrics, L log.Logger) (content.Report, error) {
	rep, err := content.Check(ctx, l)
	if err != nil {
		return rep, err
	}

	issues := map[string]int{}
	for kind, n := range rep.IssueCounts() {
		issues[string(kind)] = n
	}
	docs := map[string]int{}
	for _, lang := range content.Languages {
		docs[string(lang)] = rep.ByLanguage[lang]
	}
	m.SetContentCheck(issues, docs)

	for _, issue := range rep.Issues {
		if issue.Warning {
			L.Warn(ctx, "content check warning", "issue", issue.String())
		} else {
			L.Warn(ctx, "content check error", "kind", issue.Kind, "file", issue.File, "message", issue.Message)
		}
	}
	return rep, nil
}
