package events_test

import (
	"testing"

	"github.com/iridium/blockchain/foundation/events"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out events to receivers.")
	{
		evts := events.New()

		ch1 := evts.Acquire("1")
		ch2 := evts.Acquire("2")

		if evts.Count() != 2 {
			t.Fatalf("\t%s\tShould register two receivers.", failed)
		}
		t.Logf("\t%s\tShould register two receivers.", success)

		evts.Send("block mined")

		for _, ch := range []<-chan events.Event{ch1, ch2} {
			e := <-ch
			if e.Message != "block mined" {
				t.Fatalf("\t%s\tShould receive the event: got %q", failed, e.Message)
			}
		}
		t.Logf("\t%s\tShould deliver the event to every receiver.", success)

		if err := evts.Release("1"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a receiver: %s", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close the released channel.", failed)
		}
		t.Logf("\t%s\tShould close the released channel.", success)

		if err := evts.Release("1"); err == nil {
			t.Fatalf("\t%s\tShould not release an unknown receiver.", failed)
		}
		t.Logf("\t%s\tShould not release an unknown receiver.", success)

		evts.Shutdown()
		if _, open := <-ch2; open || evts.Count() != 0 {
			t.Fatalf("\t%s\tShould close every channel on shutdown.", failed)
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
