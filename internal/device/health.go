package device

import "sync"

// HealthStatus is the current verdict of a health test.
type HealthStatus int

const (
	HealthUnknown HealthStatus = iota
	HealthHealthy
	HealthFailed
)

func (s HealthStatus) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HealthTest is an online statistical test a Refiller feeds every raw
// device byte through before it reaches a block's staging buffer.
type HealthTest interface {
	Name() string
	Feed(b byte)
	Status() HealthStatus
	Reset()
}

// RepetitionCountTest implements NIST SP 800-90B section 4.4.1: it
// flags a source that repeats the same byte value too many times in a
// row (a stuck-at fault).
type RepetitionCountTest struct {
	mu sync.Mutex

	cutoff int

	lastValue   byte
	repeatCount int
	status      HealthStatus
}

// NewRepetitionCountTest returns a test that fails once a byte value
// repeats cutoff times consecutively. cutoff <= 0 uses a conservative
// default of 21 (1 + ceil(-log2(2^-20) / 1), i.e. a false-positive rate
// of about one in a million assuming 1 bit of min-entropy per byte).
func NewRepetitionCountTest(cutoff int) *RepetitionCountTest {
	if cutoff <= 0 {
		cutoff = 21
	}
	return &RepetitionCountTest{cutoff: cutoff, status: HealthUnknown}
}

func (t *RepetitionCountTest) Name() string { return "repetition_count" }

func (t *RepetitionCountTest) Feed(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if b == t.lastValue {
		t.repeatCount++
		if t.repeatCount >= t.cutoff {
			t.status = HealthFailed
			return
		}
	} else {
		t.lastValue = b
		t.repeatCount = 1
	}
	t.status = HealthHealthy
}

func (t *RepetitionCountTest) Status() HealthStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *RepetitionCountTest) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repeatCount = 0
	t.status = HealthUnknown
}

// AdaptiveProportionTest implements NIST SP 800-90B section 4.4.2: it
// flags a source whose most-common byte value over a sliding window
// reaches a configured count (a bias fault).
type AdaptiveProportionTest struct {
	mu sync.Mutex

	windowSize int
	cutoff     int

	window     []byte
	windowPos  int
	windowFull bool
	counts     [256]int
	status     HealthStatus
}

// NewAdaptiveProportionTest returns a test over a window of windowSize
// bytes that fails once any single value occurs cutoff or more times
// within the window. Non-positive arguments use the defaults suggested
// for 1 bit of min-entropy per byte: window 512, cutoff 325.
func NewAdaptiveProportionTest(windowSize, cutoff int) *AdaptiveProportionTest {
	if windowSize <= 0 {
		windowSize = 512
	}
	if cutoff <= 0 {
		cutoff = 325
	}
	return &AdaptiveProportionTest{
		windowSize: windowSize,
		cutoff:     cutoff,
		window:     make([]byte, windowSize),
		status:     HealthUnknown,
	}
}

func (t *AdaptiveProportionTest) Name() string { return "adaptive_proportion" }

func (t *AdaptiveProportionTest) Feed(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.windowFull {
		t.counts[t.window[t.windowPos]]--
	}
	t.window[t.windowPos] = b
	t.counts[b]++
	t.windowPos = (t.windowPos + 1) % t.windowSize
	if t.windowPos == 0 {
		t.windowFull = true
	}

	if !t.windowFull {
		return
	}
	maxCount := 0
	for _, c := range t.counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount >= t.cutoff {
		t.status = HealthFailed
	} else {
		t.status = HealthHealthy
	}
}

func (t *AdaptiveProportionTest) Status() HealthStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *AdaptiveProportionTest) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = make([]byte, t.windowSize)
	t.windowPos = 0
	t.windowFull = false
	t.counts = [256]int{}
	t.status = HealthUnknown
}

// ChiSquareTest flags a source whose byte distribution over a sliding
// window deviates from uniform beyond a chi-square critical value.
type ChiSquareTest struct {
	mu sync.Mutex

	windowSize int
	threshold  float64

	window     []byte
	windowPos  int
	windowFull bool
	status     HealthStatus
}

// NewChiSquareTest returns a test over a window of windowSize bytes,
// evaluated once per full window, failing when the chi-square statistic
// exceeds threshold. Non-positive arguments default to window 1024,
// threshold 310.5 (255 degrees of freedom, alpha = 0.01).
func NewChiSquareTest(windowSize int, threshold float64) *ChiSquareTest {
	if windowSize <= 0 {
		windowSize = 1024
	}
	if threshold <= 0 {
		threshold = 310.5
	}
	return &ChiSquareTest{
		windowSize: windowSize,
		threshold:  threshold,
		window:     make([]byte, windowSize),
		status:     HealthUnknown,
	}
}

func (t *ChiSquareTest) Name() string { return "chi_square" }

func (t *ChiSquareTest) Feed(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.window[t.windowPos] = b
	t.windowPos = (t.windowPos + 1) % t.windowSize
	if t.windowPos != 0 {
		return
	}
	t.windowFull = true

	var counts [256]int
	for _, b := range t.window {
		counts[b]++
	}
	expected := float64(t.windowSize) / 256.0
	var chiSquare float64
	for _, count := range counts {
		diff := float64(count) - expected
		chiSquare += (diff * diff) / expected
	}

	if chiSquare > t.threshold {
		t.status = HealthFailed
	} else {
		t.status = HealthHealthy
	}
}

func (t *ChiSquareTest) Status() HealthStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *ChiSquareTest) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = make([]byte, t.windowSize)
	t.windowPos = 0
	t.windowFull = false
	t.status = HealthUnknown
}

// Bank runs a fixed set of health tests over every byte of a device
// read chunk. A Refiller creates one Bank per device and calls Feed once
// per read; Failed reports whether any test has tripped.
type Bank struct {
	tests []HealthTest
}

// NewBank returns a Bank with the standard RepetitionCount +
// AdaptiveProportion + ChiSquare tests, using their documented
// defaults.
func NewBank() *Bank {
	return &Bank{
		tests: []HealthTest{
			NewRepetitionCountTest(0),
			NewAdaptiveProportionTest(0, 0),
			NewChiSquareTest(0, 0),
		},
	}
}

// NewBankWithParams returns a Bank whose tests use the given
// parameters; a non-positive value for any parameter falls back to
// that test's own conservative default, same as passing 0 directly to
// its constructor.
func NewBankWithParams(repetitionCutoff, proportionWindow, proportionCutoff, chiSquareWindow int, chiSquareThreshold float64) *Bank {
	return &Bank{
		tests: []HealthTest{
			NewRepetitionCountTest(repetitionCutoff),
			NewAdaptiveProportionTest(proportionWindow, proportionCutoff),
			NewChiSquareTest(chiSquareWindow, chiSquareThreshold),
		},
	}
}

// Feed runs every byte of chunk through every test in the bank.
func (b *Bank) Feed(chunk []byte) {
	for _, t := range b.tests {
		for _, c := range chunk {
			t.Feed(c)
		}
	}
}

// Failed reports whether any test in the bank is currently in the
// failed state, and which one.
func (b *Bank) Failed() (string, bool) {
	for _, t := range b.tests {
		if t.Status() == HealthFailed {
			return t.Name(), true
		}
	}
	return "", false
}

// Reset clears every test's accumulated state.
func (b *Bank) Reset() {
	for _, t := range b.tests {
		t.Reset()
	}
}
