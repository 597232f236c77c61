package market

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusDisputed},
		{StatusShipped, StatusCompleted},
		{StatusShipped, StatusDisputed},
		{StatusDisputed, StatusResolved},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusResolved},
		{StatusShipped, StatusCancelled},
		{StatusShipped, StatusPending},
		{StatusDisputed, StatusCompleted},
		{StatusDisputed, StatusCancelled},
		{StatusCompleted, StatusDisputed},
		{StatusCancelled, StatusShipped},
		{StatusResolved, StatusDisputed},
		{Status("bogus"), StatusShipped},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusResolved} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusShipped, StatusDisputed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
