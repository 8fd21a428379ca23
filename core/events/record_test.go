package events

import "testing"

func TestRecorderRetainsEmissionOrder(t *testing.T) {
	r := NewRecorder(3)
	r.Emit(Record{Type: "a"})
	r.Emit(Record{Type: "b"})

	recent := r.Recent()
	if len(recent) != 2 {
		t.Fatalf("got %d events, want 2", len(recent))
	}
	if recent[0].Type != "a" || recent[1].Type != "b" {
		t.Fatalf("got %+v, want [a b]", recent)
	}
}

func TestRecorderWrapsAtCapacity(t *testing.T) {
	r := NewRecorder(2)
	r.Emit(Record{Type: "a"})
	r.Emit(Record{Type: "b"})
	r.Emit(Record{Type: "c"})

	recent := r.Recent()
	if len(recent) != 2 {
		t.Fatalf("got %d events, want 2", len(recent))
	}
	if recent[0].Type != "b" || recent[1].Type != "c" {
		t.Fatalf("got %+v, want [b c]", recent)
	}
}

func TestRecorderIgnoresNilEvent(t *testing.T) {
	r := NewRecorder(2)
	r.Emit(nil)
	if len(r.Recent()) != 0 {
		t.Fatalf("expected no retained events")
	}
}
