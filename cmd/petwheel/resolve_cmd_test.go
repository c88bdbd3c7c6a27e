package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/petwheel/petwheel/engine"
)

// A registry entry sourced as "system" is routed straight to Ignored by
// the resolver (section 4.6 step 1) without ever calling Fetch, so these
// tests exercise the full resolveCmd/installCmd wiring without a real
// git/hg binary or network access.
func seedSystemRegistry(t *testing.T, h *engine.Home) {
	t.Helper()
	src := filepath.Join(h.RegistriesDir(), "preinstalled.tsv")
	body := "name\trepo\tfetcher\nalreadyhere\t\tsystem\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatalf("writing registry tsv: %v", err)
	}
}

func TestResolveCmdOnSystemPackageSucceeds(t *testing.T) {
	h := withTestHome(t)
	seedSystemRegistry(t, h)

	cmd := resolveCmd
	cmd.SetContext(context.Background())
	if err := cmd.RunE(cmd, []string{"alreadyhere"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}
