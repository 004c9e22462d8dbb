package messagingsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/trezcool/microlearn/core"
)

func TestConsoleService(t *testing.T) {
	ctx := context.Background()
	svc := NewConsoleService(nil)

	if err := svc.SendInteractiveMessage(ctx, core.InteractiveMessage{Phone: "1", Body: "hello"}); err != nil {
		t.Fatalf("SendInteractiveMessage() error = %v", err)
	}
	errDown := errors.New("down")
	svc.FailWith(errDown)
	if err := svc.SendText(ctx, "2", "lost"); err != errDown {
		t.Errorf("SendText() error = %v, want %v", err, errDown)
	}
	svc.FailWith(nil)
	if err := svc.SendText(ctx, "3", "bye"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	sent := svc.Sent()
	if len(sent) != 2 {
		t.Fatalf("len(Sent()) = %d, want 2", len(sent))
	}
	if sent[0].Interactive == nil || sent[0].Phone != "1" {
		t.Errorf("Sent()[0] = %+v", sent[0])
	}
	if sent[1].Interactive != nil || sent[1].Text != "bye" {
		t.Errorf("Sent()[1] = %+v", sent[1])
	}

	svc.Reset()
	if len(svc.Sent()) != 0 {
		t.Error("Reset() did not clear the sent messages")
	}
}
