package modkit

import (
	"testing"

	"appimagefinder/internal/platform/testkit"
)

type runner interface{ Run() int }

type runnerImpl struct{ v int }

func (r runnerImpl) Run() int { return r.v }

type ports struct {
	Runner runner
	hidden runner
}

type fakeModule struct{ ports any }

func (m fakeModule) Name() string { return "fake" }
func (m fakeModule) Ports() any   { return m.ports }
func (m fakeModule) Close() error { return nil }

func TestPortsOf_DirectMatch(t *testing.T) {
	got, ok := PortsOf[runner](fakeModule{ports: runnerImpl{v: 7}})
	if !ok || got.Run() != 7 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestPortsOf_StructField(t *testing.T) {
	got, ok := PortsOf[runner](fakeModule{ports: ports{Runner: runnerImpl{v: 3}}})
	if !ok || got.Run() != 3 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
	got, ok = PortsOf[runner](fakeModule{ports: &ports{Runner: runnerImpl{v: 4}}})
	if !ok || got.Run() != 4 {
		t.Fatalf("pointer: got %v ok=%v", got, ok)
	}
}

func TestPortsOf_Misses(t *testing.T) {
	if _, ok := PortsOf[runner](fakeModule{}); ok {
		t.Fatal("nil ports must miss")
	}
	if _, ok := PortsOf[runner](fakeModule{ports: ports{hidden: runnerImpl{}}}); ok {
		t.Fatal("unexported fields and nil interfaces must miss")
	}
	if _, ok := PortsOf[runner](fakeModule{ports: (*ports)(nil)}); ok {
		t.Fatal("nil pointer must miss")
	}
	if _, ok := PortsOf[runner](fakeModule{ports: 42}); ok {
		t.Fatal("non struct must miss")
	}
}

func TestMustPortsOf_Panics(t *testing.T) {
	testkit.MustPanic(t, func() { MustPortsOf[runner](fakeModule{ports: ports{}}) })
}
