package device

import "testing"

func TestRepetitionCountTestFailsOnStuckValue(t *testing.T) {
	rt := NewRepetitionCountTest(5)
	for i := 0; i < 4; i++ {
		rt.Feed(0x42)
		if rt.Status() == HealthFailed {
			t.Fatalf("failed early at iteration %d", i)
		}
	}
	rt.Feed(0x42)
	if rt.Status() != HealthFailed {
		t.Fatal("expected repetition count test to fail after cutoff repeats")
	}
}

func TestRepetitionCountTestRecoversOnChange(t *testing.T) {
	rt := NewRepetitionCountTest(3)
	rt.Feed(0x01)
	rt.Feed(0x01)
	rt.Feed(0x01)
	if rt.Status() != HealthFailed {
		t.Fatal("expected failure")
	}
	rt.Feed(0x02)
	if rt.Status() != HealthHealthy {
		t.Fatal("expected healthy after a differing byte")
	}
}

func TestAdaptiveProportionTestFailsOnBias(t *testing.T) {
	apt := NewAdaptiveProportionTest(16, 10)
	for i := 0; i < 16; i++ {
		apt.Feed(0xFF)
	}
	if apt.Status() != HealthFailed {
		t.Fatal("expected adaptive proportion test to fail on all-same window")
	}
}

func TestAdaptiveProportionTestHealthyOnUniform(t *testing.T) {
	apt := NewAdaptiveProportionTest(256, 10)
	for i := 0; i < 256; i++ {
		apt.Feed(byte(i))
	}
	if apt.Status() != HealthHealthy {
		t.Fatal("expected adaptive proportion test to stay healthy on a uniform window")
	}
}

func TestChiSquareTestFailsOnConstantWindow(t *testing.T) {
	cst := NewChiSquareTest(256, 50)
	for i := 0; i < 256; i++ {
		cst.Feed(0x00)
	}
	if cst.Status() != HealthFailed {
		t.Fatal("expected chi-square test to fail on a constant window")
	}
}

func TestChiSquareTestHealthyOnUniform(t *testing.T) {
	cst := NewChiSquareTest(256, 310.5)
	for i := 0; i < 256; i++ {
		cst.Feed(byte(i))
	}
	if cst.Status() != HealthHealthy {
		t.Fatal("expected chi-square test to pass on a perfectly uniform window")
	}
}

func TestBankReportsFirstFailure(t *testing.T) {
	b := NewBank()
	if _, failed := b.Failed(); failed {
		t.Fatal("fresh bank should not report a failure")
	}
	chunk := make([]byte, 64)
	for i := range chunk {
		chunk[i] = 0x7A
	}
	// Feed the same stuck byte repeatedly until the repetition count
	// test trips.
	for i := 0; i < 3; i++ {
		b.Feed(chunk)
	}
	name, failed := b.Failed()
	if !failed {
		t.Fatal("expected bank to report a failure on a stuck-at byte stream")
	}
	if name == "" {
		t.Fatal("expected a non-empty failing test name")
	}
}
