package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitializeCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbcbasic.cfg")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "; BBC BASIC Configuration File") {
		t.Errorf("unexpected header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if strings.Index(string(data), "[Interpreter]") > strings.Index(string(data), "[Debug]") {
		t.Error("sections not written in order")
	}

	if got := GetInt("Interpreter", "max_call_depth", 0); got != 256 {
		t.Errorf("max_call_depth = %d, want 256", got)
	}
	if got := GetDuration("Server", "pong_timeout", 0); got != 60*time.Second {
		t.Errorf("pong_timeout = %v", got)
	}
	if got := GetBool("Interpreter", "trace_parse", true); got {
		t.Error("trace_parse defaulted to true")
	}
	if got := GetString("Nope", "missing", "fallback"); got != "fallback" {
		t.Errorf("missing key = %q", got)
	}
}

func TestLocalOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.cfg")
	base := "[Interpreter]\nmax_call_depth = 10\nmax_loop_depth = 20\n"
	local := "; overrides\n[Interpreter]\nmax_call_depth = 99\n"
	if err := os.WriteFile(path, []byte(base), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.local.cfg"), []byte(local), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	if got := GetInt("Interpreter", "max_call_depth", 0); got != 99 {
		t.Errorf("overlay not applied: %d", got)
	}
	if got := GetInt("Interpreter", "max_loop_depth", 0); got != 20 {
		t.Errorf("base value lost: %d", got)
	}
}

func TestSetStringAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.cfg")
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	SetString("Store", "database_path", "other.db")
	SetString("Custom", "key", "value")
	if err := Save(); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	if got := GetString("Store", "database_path", ""); got != "other.db" {
		t.Errorf("database_path = %q after reload", got)
	}
	if got := GetSection("Custom"); got["key"] != "value" {
		t.Errorf("custom section = %v", got)
	}
}

func TestTypedGettersFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cfg")
	os.WriteFile(path, []byte("[X]\nn = abc\nd = soon\nf = 1.5\n"), 0644)
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	if GetInt("X", "n", 7) != 7 {
		t.Error("bad integer did not fall back")
	}
	if GetDuration("X", "d", time.Second) != time.Second {
		t.Error("bad duration did not fall back")
	}
	if GetFloat("X", "f", 0) != 1.5 {
		t.Error("float not parsed")
	}
	if GetInt64("X", "missing", 3) != 3 {
		t.Error("missing int64 did not fall back")
	}
}
