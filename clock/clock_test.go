package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFake_NowAndAdvance(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("expected %v, got %v", epoch, c.Now())
	}
	c.Advance(3 * time.Second)
	if got := c.Now().Sub(epoch); got != 3*time.Second {
		t.Errorf("expected 3s elapsed, got %v", got)
	}
}

func TestFake_TickerFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	c.Advance(500 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case tick := <-ticker.C():
		if !tick.Equal(epoch.Add(time.Second)) {
			t.Errorf("unexpected tick time %v", tick)
		}
	default:
		t.Fatal("ticker did not fire")
	}
}

func TestFake_TickerDropsWhenFull(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	c.Advance(5 * time.Second)
	<-ticker.C()
	select {
	case <-ticker.C():
		t.Fatal("expected extra ticks to be dropped")
	default:
	}
}

func TestFake_StopAndWaitForTickers(t *testing.T) {
	c := Fake(epoch)
	a := c.NewTicker(time.Second)
	b := c.NewTicker(2 * time.Second)
	c.WaitForTickers(2)

	go a.Stop()
	c.WaitForTickers(1)

	c.Advance(2 * time.Second)
	select {
	case <-a.C():
		t.Error("stopped ticker fired")
	default:
	}
	select {
	case <-b.C():
	default:
		t.Error("active ticker did not fire")
	}
	b.Stop()
	if n := c.ActiveTickers(); n != 0 {
		t.Errorf("expected 0 active tickers, got %d", n)
	}
}

func TestFake_NewTickerPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero interval")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestReal(t *testing.T) {
	c := Real()
	before := time.Now()
	if c.Now().Before(before) {
		t.Error("real clock went backwards")
	}
	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
