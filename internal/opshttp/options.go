package opshttp

import (
	"net/http"

	"github.com/keithlinneman/zuga-web/internal/health"
)

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe
	// Content reports the loaded content root and its last check, served at /-/content.
	Content http.Handler
}
