package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"cpu unlimited", CPUBound, 0, procs},
		{"io unlimited", IOBound, 0, procs * 2},
		{"mixed unlimited", Mixed, 0, max(int(float64(procs)*1.5), 1)},
		{"limit caps", IOBound, 1, 1},
		{"tiny multiplier floors at one", 0.01, 0, 1},
		{"zero multiplier floors at one", 0, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"valid", "4", 0, 4},
		{"capped by limit", "32", 8, 8},
		{"under limit", "3", 8, 3},
		{"zero ignored", "0", 1, 1},
		{"negative ignored", "-2", 1, 1},
		{"garbage ignored", "lots", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(CPUBound, tt.limit); got != tt.want {
				t.Errorf("Count with %s=%q, limit %d = %d, want %d", EnvOverride, tt.env, tt.limit, got, tt.want)
			}
		})
	}
}

func TestHelpersAgreeWithCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	if got, want := ForCPU(64), Count(CPUBound, 64); got != want {
		t.Errorf("ForCPU(64) = %d, want %d", got, want)
	}
	if got, want := ForIO(64), Count(IOBound, 64); got != want {
		t.Errorf("ForIO(64) = %d, want %d", got, want)
	}
	if got, want := ForMixed(64), Count(Mixed, 64); got != want {
		t.Errorf("ForMixed(64) = %d, want %d", got, want)
	}
	if ForCPU(64) > ForIO(64) {
		t.Errorf("ForCPU(64) = %d exceeds ForIO(64) = %d", ForCPU(64), ForIO(64))
	}
}

func TestHelpersRespectOverride(t *testing.T) {
	t.Setenv(EnvOverride, "5")
	for name, fn := range map[string]func(int) int{"ForCPU": ForCPU, "ForIO": ForIO, "ForMixed": ForMixed} {
		if got := fn(0); got != 5 {
			t.Errorf("%s(0) = %d, want 5", name, got)
		}
	}
}
