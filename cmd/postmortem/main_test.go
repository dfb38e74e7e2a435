package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dshills/postmortem/internal/config"
	"github.com/dshills/postmortem/internal/logging"
)

func TestDemoPanicIsDebuggable(t *testing.T) {
	cfg := config.Default()
	cfg.Debugger.Editor = "vscode"
	srv, cleanup, err := build(cfg, logging.Nop(), true)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	reg, ok := srv.Store().Latest()
	if !ok {
		t.Fatal("no capture recorded")
	}
	c := reg.Capture()
	if c.Type != "*fmt.wrapError" && c.Type != "*errors.errorString" {
		t.Errorf("Type = %q", c.Type)
	}
	if !strings.HasSuffix(c.Frames[0].Function, ".applyCoupons") {
		t.Fatalf("innermost frame = %s", c.Frames[0].Function)
	}

	res, err := reg.Evaluate(0, "amount - total")
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if res.Result != "=> 44.5" {
		t.Errorf("amount - total = %q", res.Result)
	}

	detail, err := reg.Inspect(1)
	if err != nil {
		t.Fatalf("Inspect error = %v", err)
	}
	if !strings.HasSuffix(detail.Function, "checkout") || !detail.REPLAvailable {
		t.Errorf("frame 1 = %+v", detail)
	}
	if !strings.HasPrefix(detail.EditorURL, "vscode://file/") {
		t.Errorf("EditorURL = %q", detail.EditorURL)
	}
}

func TestDemoIndexHasNoBindings(t *testing.T) {
	srv, cleanup, err := build(config.Default(), logging.Nop(), true)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo/index", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	reg, _ := srv.Store().Latest()
	res, err := reg.Evaluate(0, "1")
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if !res.Unavailable() {
		t.Errorf("result = %+v, expected unavailable", res)
	}
}
