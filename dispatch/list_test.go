package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testListener struct {
	name string
	calls *[]string
}

func TestEachDeliversInInsertionOrder(t *testing.T) {
	var calls []string
	list := NewList[testListener](nil)
	list.Add(testListener{name: "a", calls: &calls}, nil)
	list.Add(testListener{name: "b", calls: &calls}, nil)
	list.Add(testListener{name: "c", calls: &calls}, nil)

	list.Each(func(l testListener) {
		*l.calls = append(*l.calls, l.name)
	})

	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestRemoveStopsFurtherDelivery(t *testing.T) {
	var calls []string
	list := NewList[testListener](nil)
	hb := list.Add(testListener{name: "a", calls: &calls}, nil)
	_ = hb
	handleB := list.Add(testListener{name: "b", calls: &calls}, nil)
	list.Add(testListener{name: "c", calls: &calls}, nil)

	list.Remove(handleB)

	list.Each(func(l testListener) {
		*l.calls = append(*l.calls, l.name)
	})

	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestRemovingUnknownHandleIsNoOp(t *testing.T) {
	list := NewList[testListener](nil)
	list.Add(testListener{name: "a"}, nil)
	list.Remove(Handle(9999))
	assert.Equal(t, 1, list.Len())
}

func TestPanicRoutedToListenersOwnHandler(t *testing.T) {
	var ownErr error
	var sinkErr error

	list := NewList[testListener](func(err error) { sinkErr = err })
	list.Add(testListener{name: "panics"}, func(err error) { ownErr = err })

	list.Each(func(l testListener) {
		panic("boom")
	})

	require.Error(t, ownErr)
	assert.Contains(t, ownErr.Error(), "boom")
	assert.NoError(t, sinkErr)
}

func TestPanicRoutedToSinkWhenNoOwnHandler(t *testing.T) {
	var sinkErr error
	list := NewList[testListener](func(err error) { sinkErr = err })
	list.Add(testListener{name: "panics"}, nil)

	list.Each(func(l testListener) {
		panic("kaboom")
	})

	require.Error(t, sinkErr)
	assert.Contains(t, sinkErr.Error(), "kaboom")
}

func TestPanicInOneListenerDoesNotStopOthers(t *testing.T) {
	var calls []string
	list := NewList[testListener](func(error) {})
	list.Add(testListener{name: "a", calls: &calls}, nil)
	list.Add(testListener{name: "panics"}, func(error) {})
	list.Add(testListener{name: "c", calls: &calls}, nil)

	list.Each(func(l testListener) {
		if l.name == "panics" {
			panic("middle listener exploded")
		}
		*l.calls = append(*l.calls, l.name)
	})

	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestPanicInsideOnPanicHandlerDoesNotEscape(t *testing.T) {
	list := NewList[testListener](nil)
	list.Add(testListener{name: "a"}, func(error) { panic("handler also panics") })

	assert.NotPanics(t, func() {
		list.Each(func(l testListener) { panic("original") })
	})
}
