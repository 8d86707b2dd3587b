package scene

import (
	"errors"
	"testing"
)

type nopTemplate struct{}

func (nopTemplate) Instantiate() Node { return nil }
func (nopTemplate) Release()          {}

func TestPending_Complete(t *testing.T) {
	p := NewPending()

	if p.IsResolved() {
		t.Fatal("expected unresolved pending")
	}

	select {
	case <-p.Done():
		t.Fatal("done channel closed before completion")
	default:
	}

	p.Complete(nopTemplate{}, nil)

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed after completion")
	}

	tmpl, err := p.Result()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if tmpl == nil {
		t.Error("expected template")
	}
}

func TestPending_CompleteTwiceIsNoop(t *testing.T) {
	p := NewPending()
	p.Complete(nopTemplate{}, nil)
	p.Complete(nil, errors.New("late failure")) // must not overwrite

	tmpl, err := p.Result()
	if err != nil {
		t.Errorf("expected first completion to win, got error %v", err)
	}
	if tmpl == nil {
		t.Error("expected template from first completion")
	}
}

func TestPending_OnCompleteBeforeResolution(t *testing.T) {
	p := NewPending()

	var got error
	called := 0
	p.OnComplete(func(_ Template, err error) {
		called++
		got = err
	})

	wantErr := errors.New("load rejected")
	p.Complete(nil, wantErr)

	if called != 1 {
		t.Fatalf("expected 1 callback, got %d", called)
	}
	if !errors.Is(got, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, got)
	}
}

func TestPending_OnCompleteAfterResolution(t *testing.T) {
	p := Resolved(nopTemplate{}, nil)

	called := 0
	p.OnComplete(func(tmpl Template, err error) {
		called++
		if tmpl == nil || err != nil {
			t.Errorf("unexpected outcome: tmpl=%v err=%v", tmpl, err)
		}
	})

	if called != 1 {
		t.Errorf("expected immediate callback on resolved pending, got %d", called)
	}
}
