package rendez_bridge

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"sutext.github.io/cable/internal/rendez"
	"sutext.github.io/cable/internal/rendez/rselect"
)

func TestNativeChanSelectAlongsideRendezChannel(t *testing.T) {
	rendezCh, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	nativeCh := make(chan string, 1)

	var gotInt int
	var gotStr string
	done := make(chan struct{})
	go func() {
		idx, err := rselect.Select(context.Background(),
			rselect.Recv(rendezCh, func(v int) { gotInt = v }),
			Recv(nativeCh, func(v string) { gotStr = v }),
		)
		if err != nil {
			t.Errorf("Select: %v", err)
		}
		if idx != 1 {
			t.Errorf("Select returned case %d, want 1 (native channel)", idx)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	nativeCh <- "ready"

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Select across a rendez.Channel and a native channel never returned")
	}
	if gotStr != "ready" || gotInt != 0 {
		t.Errorf("got (int=%d, str=%q), want (0, ready)", gotInt, gotStr)
	}
}

func TestBridgeDrain(t *testing.T) {
	ch, err := rendez.NewChannel[int](3)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	for _, v := range []int{1, 2, 3} {
		if err := ch.Send(v); err != nil {
			t.Fatalf("Send(%d): %v", v, err)
		}
	}
	ch.Close()

	b := New(ch)
	var got []int
	err = b.Drain(context.Background(), func(v int) { got = append(got, v) })
	if err == nil {
		t.Fatal("Drain should report the channel-closed error once exhausted")
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Drain collected %v, want [1 2 3]", got)
	}
}

func TestInstrumentedChannelCounters(t *testing.T) {
	ch, err := rendez.NewChannel[int](1)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	ic := Instrument(context.Background(), noop.NewMeterProvider().Meter("test"), "demo", ch)

	if err := ic.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if v, err := ic.Receive(); err != nil || v != 1 {
		t.Fatalf("Receive() = (%d, %v), want (1, nil)", v, err)
	}
	ic.Close()
	if err := ic.Send(2); err == nil {
		t.Fatal("Send on a closed instrumented channel should fail")
	}
	ic.Close() // idempotent, must not panic or double count
}
