package config

import (
	"path/filepath"
	"testing"
	"time"

	kit "lasrouter/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New().Prefix("LASROUTER_")
	ex := root.Prefix("EXECUTOR_")
	if got := ex.Key("INTERPRETER"); got != "LASROUTER_EXECUTOR_INTERPRETER" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  lasrouter ")
	if got := c.MustString("NAME"); got != "lasrouter" {
		t.Fatalf("MustString = %q, want %q", got, "lasrouter")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("D_")
	t.Setenv("D_TIMEOUT", " 250ms ")
	if got := c.MustDuration("TIMEOUT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v", got)
	}
	t.Setenv("D_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMayValues(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_INT", "7")
	t.Setenv("M_BADINT", "seven")
	t.Setenv("M_F", "0.25")
	t.Setenv("M_B", "true")
	t.Setenv("M_D", "2s")
	t.Setenv("M_NEGD", "-2s")

	if got := c.MayInt("INT", 1); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("BADINT", 3); got != 3 {
		t.Fatalf("MayInt invalid = %d, want default", got)
	}
	if got := c.MayFloat64("F", 1); got != 0.25 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("B", false) {
		t.Fatalf("MayBool want true")
	}
	if got := c.MayDuration("D", time.Second); got != 2*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("NEGD", time.Second); got != time.Second {
		t.Fatalf("negative duration should fall back, got %v", got)
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("C_")
	t.Setenv("C_LIST", " a, ,b ,c")
	got := c.MayCSV("LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("MayCSV = %v", got)
	}
	t.Setenv("C_EMPTY", " , ")
	if got := c.MayCSV("EMPTY", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("MayCSV empty = %v", got)
	}
}

func TestMayPath(t *testing.T) {
	c := New().Prefix("P_")
	base := t.TempDir()
	if got := c.MayPath("DIR", "scripts", base); got != filepath.Join(base, "scripts") {
		t.Fatalf("MayPath relative = %q", got)
	}
	t.Setenv("P_DIR", "/opt/res/../res/scripts/")
	if got := c.MayPath("DIR", "scripts", base); got != "/opt/res/scripts" {
		t.Fatalf("MayPath abs = %q", got)
	}
	if got := c.MayPath("NONE", "", base); got != "" {
		t.Fatalf("MayPath empty = %q", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_DRIVER", "PG")
	if got := c.MayEnum("DRIVER", "file", "file", "pg"); got != "pg" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("UNSET", "file", "file", "pg"); got != "file" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_BAD", "mysql")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "file", "file", "pg") })
}
