package notify

import "testing"

func TestUrgencyValues(t *testing.T) {
	// Verify urgency constants match D-Bus spec
	if UrgencyLow != 0 {
		t.Errorf("UrgencyLow = %d, want 0", UrgencyLow)
	}
	if UrgencyNormal != 1 {
		t.Errorf("UrgencyNormal = %d, want 1", UrgencyNormal)
	}
	if UrgencyCritical != 2 {
		t.Errorf("UrgencyCritical = %d, want 2", UrgencyCritical)
	}
}

type fakeNotifier struct {
	sent   []Notification
	nextID uint32
}

func (f *fakeNotifier) Notify(n Notification) (uint32, error) {
	f.sent = append(f.sent, n)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Close(_ uint32) error { return nil }

func TestTrackNotifier_ReplacesPrevious(t *testing.T) {
	fake := &fakeNotifier{}
	tn := NewTrackNotifier(fake)

	tn.NowPlaying("One", "Artist A")
	tn.NowPlaying("Two", "Artist B")

	if len(fake.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(fake.sent))
	}
	if fake.sent[0].ReplacesID != 0 {
		t.Errorf("first ReplacesID = %d, want 0 (new)", fake.sent[0].ReplacesID)
	}
	if fake.sent[1].ReplacesID != 1 {
		t.Errorf("second ReplacesID = %d, want 1 (replace previous)", fake.sent[1].ReplacesID)
	}
	if fake.sent[1].Title != "Two" || fake.sent[1].Body != "Artist B" {
		t.Errorf("second notification = %+v, want title/artist", fake.sent[1])
	}
}
