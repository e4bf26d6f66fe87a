package pages

import (
	"errors"
	"testing"
)

func TestPerformThenReload_MutationFailureSkipsReload(t *testing.T) {
	mutationErr := errors.New("rejected")
	reloaded := false

	_, replaced, err := performThenReload(
		func() error { return mutationErr },
		func() ([]int, error) {
			reloaded = true
			return []int{1, 2, 3}, nil
		},
	)

	if !errors.Is(err, mutationErr) {
		t.Errorf("expected mutation error, got %v", err)
	}
	if replaced {
		t.Error("failed mutation must not replace displayed state")
	}
	if reloaded {
		t.Error("failed mutation must not trigger a reload")
	}
}

func TestPerformThenReload_SuccessReplacesWholesale(t *testing.T) {
	fresh := []int{7, 8}

	got, replaced, err := performThenReload(
		func() error { return nil },
		func() ([]int, error) { return fresh, nil },
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !replaced {
		t.Fatal("expected replacement after successful mutation")
	}
	if len(got) != 2 || got[0] != 7 || got[1] != 8 {
		t.Errorf("expected reload result exactly, got %v", got)
	}
}

func TestPerformThenReload_ReloadFailureKeepsOldState(t *testing.T) {
	reloadErr := errors.New("reload down")

	_, replaced, err := performThenReload(
		func() error { return nil },
		func() ([]int, error) { return nil, reloadErr },
	)

	if !errors.Is(err, reloadErr) {
		t.Errorf("expected reload error, got %v", err)
	}
	if replaced {
		t.Error("failed reload must not replace displayed state")
	}
}

func TestSubmitGuard_RejectsConcurrentSubmission(t *testing.T) {
	var g submitGuard

	if err := g.begin(); err != nil {
		t.Fatalf("first begin failed: %v", err)
	}
	if err := g.begin(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("expected ErrSubmissionInFlight, got %v", err)
	}

	g.finish(nil)
	if err := g.begin(); err != nil {
		t.Errorf("begin after finish failed: %v", err)
	}
}

func TestSubmitGuard_KeepsLastError(t *testing.T) {
	var g submitGuard
	failure := errors.New("boom")

	g.begin()
	g.finish(failure)
	if g.State() != Idle {
		t.Error("expected Idle after finish")
	}
	if !errors.Is(g.Err(), failure) {
		t.Errorf("expected last error kept, got %v", g.Err())
	}

	// Next submission clears the previous failure.
	g.begin()
	if g.Err() != nil {
		t.Errorf("expected error cleared on new submission, got %v", g.Err())
	}
}

func TestSubmitGuard_Closed(t *testing.T) {
	var g submitGuard
	g.close()

	if err := g.begin(); !errors.Is(err, ErrViewClosed) {
		t.Errorf("expected ErrViewClosed, got %v", err)
	}
}
