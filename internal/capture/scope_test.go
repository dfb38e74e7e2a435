package capture

import (
	"context"
	"sync"
	"testing"
)

func TestBindWithoutScope(t *testing.T) {
	if BindLocals(context.Background(), "f", "x", 1) {
		t.Error("Bind without a scope should report false")
	}
}

func TestScopeCollectsBindings(t *testing.T) {
	s := NewScope()
	ctx := WithScope(context.Background(), s)

	if !BindLocals(ctx, "panicky", "x", 1) {
		t.Fatal("Bind should succeed with a scope")
	}
	BindLocals(ctx, "panicky", "x", 2)
	Bind(ctx, "other", nil)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, expected rebinding to replace", s.Len())
	}

	var c *Capture
	func() {
		defer func() {
			c = FromPanic(recover(), s.Options()...)
		}()
		panicky()
	}()

	b, ok := c.Frames[0].EvaluationContext()
	if !ok {
		t.Fatal("scope binding was not attached")
	}
	if v, _ := b.(*LocalBinding).Lookup("x"); v != 2 {
		t.Errorf("x = %v, expected the latest binding", v)
	}
}

func TestScopeConcurrentBind(t *testing.T) {
	s := NewScope()
	ctx := WithScope(context.Background(), s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			BindLocals(ctx, "worker", "i", i)
		}()
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Errorf("Len() = %d", s.Len())
	}
}
