package handlers

import "testing"

func newStreamRegistry() *Main {
	return &Main{streams: map[string]streamHandle{}}
}

func TestStreamRegistryReplacementStaysCancellable(t *testing.T) {
	m := newStreamRegistry()

	var firstCancelled, secondCancelled bool
	firstGen := m.registerStream("s1", func() { firstCancelled = true })
	secondGen := m.registerStream("s1", func() { secondCancelled = true })

	if !firstCancelled {
		t.Fatal("registering a replacement did not cancel the previous bridge")
	}
	if firstGen == secondGen {
		t.Fatal("replacement got the same generation as the bridge it replaced")
	}

	// The replaced bridge exits and runs its deferred unregister. It must
	// not remove the replacement's registration.
	m.unregisterStream("s1", firstGen, func() {})

	m.cancelStream("s1")
	if !secondCancelled {
		t.Fatal("replacement bridge was not cancellable after the old bridge unregistered")
	}
}

func TestStreamRegistryUnregisterOwnEntry(t *testing.T) {
	m := newStreamRegistry()

	gen := m.registerStream("s1", func() {})
	m.unregisterStream("s1", gen, func() {})

	if _, ok := m.streams["s1"]; ok {
		t.Fatal("unregisterStream left its own registration behind")
	}

	// Cancelling after a clean unregister is a no-op.
	m.cancelStream("s1")
}

func TestStreamRegistryCancelStream(t *testing.T) {
	m := newStreamRegistry()

	var cancelled bool
	gen := m.registerStream("s1", func() { cancelled = true })

	m.cancelStream("s1")
	if !cancelled {
		t.Fatal("cancelStream did not invoke the registered cancel func")
	}
	if _, ok := m.streams["s1"]; ok {
		t.Fatal("cancelStream left the registration behind")
	}

	// The bridge's deferred unregister after an external cancel is a no-op.
	m.unregisterStream("s1", gen, func() {})
}
