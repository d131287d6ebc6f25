package shutdown

import "testing"

func TestStopClearsRunnableAndClosesDone(t *testing.T) {
	c := New()
	if !c.Runnable() {
		t.Fatal("expected Runnable() true immediately after New")
	}

	select {
	case <-c.Done():
		t.Fatal("Done() closed before Stop was called")
	default:
	}

	c.Stop()

	if c.Runnable() {
		t.Fatal("expected Runnable() false after Stop")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done() to be closed after Stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := New()
	c.Stop()
	c.Stop() // must not panic on double-close
	if c.Runnable() {
		t.Fatal("expected Runnable() false after Stop")
	}
}
