package split

import (
	"math"
	"testing"

	"github.com/snapsplit/snapsplit/internal/receipt"
)

func items(rows ...receipt.LineItem) []receipt.LineItem { return rows }

func TestSummarizeEvenSplit(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Burger", Price: 18.50, AllocatedTo: []string{"a", "b"}},
		receipt.LineItem{ID: "2", Name: "Fries", Price: 7.00, AllocatedTo: []string{"a", "b"}},
		receipt.LineItem{ID: "3", Name: "Salad", Price: 14.00, AllocatedTo: []string{"a", "b"}},
	)

	s := Summarize(ls, people)
	if s.OwedByPerson["a"] != 19.75 || s.OwedByPerson["b"] != 19.75 {
		t.Errorf("owed = %v, want 19.75 each", s.OwedByPerson)
	}
	if s.UnassignedTotal != 0 {
		t.Errorf("UnassignedTotal = %v, want 0", s.UnassignedTotal)
	}
	if s.Subtotal != 39.50 {
		t.Errorf("Subtotal = %v, want 39.50", s.Subtotal)
	}
}

func TestSummarizeUnassignedBucket(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Burger", Price: 18.50, AllocatedTo: []string{"a"}},
		receipt.LineItem{ID: "2", Name: "Fries", Price: 7.00, AllocatedTo: []string{}},
	)

	s := Summarize(ls, people)
	if s.OwedByPerson["a"] != 18.50 {
		t.Errorf("owed[a] = %v, want 18.50", s.OwedByPerson["a"])
	}
	if s.OwedByPerson["b"] != 0 {
		t.Errorf("owed[b] = %v, want 0 (present but unassigned)", s.OwedByPerson["b"])
	}
	if s.UnassignedTotal != 7.00 {
		t.Errorf("UnassignedTotal = %v, want 7.00", s.UnassignedTotal)
	}
}

func TestSummarizeConservation(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}, {ID: "c", Name: "Cara"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Share Plate", Price: 10.00, AllocatedTo: []string{"a", "b", "c"}},
		receipt.LineItem{ID: "2", Name: "Wine", Price: 13.35, AllocatedTo: []string{"b", "c"}},
		receipt.LineItem{ID: "3", Name: "Water", Price: 4.20, AllocatedTo: nil},
	)

	s := Summarize(ls, people)
	sum := s.UnassignedTotal
	for _, v := range s.OwedByPerson {
		sum += v
	}
	if math.Abs(sum-s.Subtotal) > 0.01 {
		t.Errorf("owed+unassigned = %v, subtotal = %v, want within 0.01", sum, s.Subtotal)
	}
}
