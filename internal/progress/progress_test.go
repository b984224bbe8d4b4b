package progress

import (
	"testing"
)

func TestThrottle_Unlimited(t *testing.T) {
	th := New(0)
	for i := 0; i < 100; i++ {
		if !th.Allow() {
			t.Fatal("unthrottled reporter must always allow")
		}
	}
}

func TestThrottle_SuppressesBursts(t *testing.T) {
	th := New(1)

	if !th.Allow() {
		t.Fatal("first call should be allowed")
	}
	if th.Allow() {
		t.Error("immediate second call should be suppressed at 1/s")
	}
}

func TestThrottle_SetRate(t *testing.T) {
	th := New(1)
	th.Allow()

	th.SetRate(0)
	if !th.Allow() {
		t.Error("after SetRate(0) the reporter must be unthrottled")
	}
}
