package crawler

import (
	"reflect"
	"sync"
	"testing"
)

// --- URLQueue Tests ---

func TestURLQueue_Add_NewURL(t *testing.T) {
	q := NewURLQueue()

	if !q.Add("https://www.airbnb.co.kr/rooms/1") {
		t.Error("Add() should return true for new URL")
	}
	if q.Len() != 1 {
		t.Errorf("expected queue length 1, got %d", q.Len())
	}
}

func TestURLQueue_Add_SameListing(t *testing.T) {
	q := NewURLQueue()

	q.Add("https://www.airbnb.co.kr/rooms/1?adults=1")
	tests := []string{
		"https://www.airbnb.co.kr/rooms/1?adults=2",
		"https://WWW.AIRBNB.CO.KR/rooms/1/",
		"https://www.airbnb.co.kr/rooms/1#photos",
	}
	for _, u := range tests {
		if q.Add(u) {
			t.Errorf("Add(%q) should return false for an already queued listing", u)
		}
	}

	if next, _ := q.Pop(); next != "https://www.airbnb.co.kr/rooms/1?adults=1" {
		t.Errorf("first spelling should be kept, got %q", next)
	}
}

func TestURLQueue_Add_InvalidURL(t *testing.T) {
	q := NewURLQueue()

	for _, u := range []string{"://invalid", "rooms/1", ""} {
		if q.Add(u) {
			t.Errorf("Add(%q) should return false", u)
		}
	}
}

func TestURLQueue_Pop_Empty(t *testing.T) {
	q := NewURLQueue()

	next, ok := q.Pop()
	if ok || next != "" {
		t.Errorf("Pop() = %q, %v on empty queue", next, ok)
	}
}

func TestURLQueue_Take(t *testing.T) {
	q := NewURLQueue()
	for _, u := range []string{"https://a/rooms/1", "https://a/rooms/2", "https://a/rooms/3"} {
		q.Add(u)
	}

	if got := q.Take(2); !reflect.DeepEqual(got, []string{"https://a/rooms/1", "https://a/rooms/2"}) {
		t.Errorf("Take(2) = %v", got)
	}
	if got := q.Take(0); !reflect.DeepEqual(got, []string{"https://a/rooms/3"}) {
		t.Errorf("Take(0) = %v", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue not drained, len %d", q.Len())
	}
	if !q.Seen("https://a/rooms/2?x=1") {
		t.Error("Seen() should remember taken listings")
	}
}

func TestURLQueue_Concurrent(t *testing.T) {
	q := NewURLQueue()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Add("https://a/rooms/1")
		}()
	}
	wg.Wait()

	if q.Len() != 1 {
		t.Errorf("expected 1 queued URL, got %d", q.Len())
	}
}
