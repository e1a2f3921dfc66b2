package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{"CPU-bound", 1.0, 0, 1, availableCPU},
		{"I/O-bound", 2.0, 0, 1, availableCPU * 2},
		{"mixed", 1.5, 0, 1, int(float64(availableCPU) * 1.5)},
		{"capped below calculation", 2.0, 2, 1, 2},
		{"tiny multiplier floors at one", 0.1, 0, 1, max(1, availableCPU/10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected %d..%d",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	t.Setenv("JOB_WORKERS", "7")
	if got := Count(1.0, 0); got != 7 {
		t.Errorf("Count with override = %d, want 7", got)
	}
	if got := Count(1.0, 4); got != 4 {
		t.Errorf("Override must still respect the cap, got %d", got)
	}

	t.Setenv("JOB_WORKERS", "garbage")
	if got := Count(1.0, 0); got < 1 {
		t.Errorf("Invalid override should fall back to calculation, got %d", got)
	}
}

func TestForIO(t *testing.T) {
	if got := ForIO(1); got != 1 {
		t.Errorf("ForIO must respect a cap of 1, got %d", got)
	}
}
