package ui

import (
	"testing"
)

func TestExecutorDeliversCompletionThroughWait(t *testing.T) {
	executor := NewExecutor()

	var called, completed bool
	executor.Run(func() { called = true }, func() { completed = true })

	msg, ok := executor.Wait()().(completionMsg)
	if !ok {
		t.Fatal("Wait did not produce a completion")
	}
	if !called {
		t.Error("call did not run before its completion was delivered")
	}
	if completed {
		t.Error("completion ran before Update handled it")
	}

	msg.complete()
	if !completed {
		t.Error("completion did not run")
	}
}

func TestExecutorDeliversEveryCompletion(t *testing.T) {
	executor := NewExecutor()

	const calls = 5
	done := make(map[int]bool)
	for i := range calls {
		executor.Run(func() {}, func() { done[i] = true })
	}
	for range calls {
		executor.Wait()().(completionMsg).complete()
	}
	if len(done) != calls {
		t.Errorf("%d completions delivered, want %d", len(done), calls)
	}
}
