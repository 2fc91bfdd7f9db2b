package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(zap.NewNop(), NewStore())

	var a, b, c recorder
	h.Subscribe("evt-1", a.listen)
	unsubB := h.Subscribe("evt-1", b.listen)
	h.Subscribe("evt-1", c.listen)
	assert.Equal(t, 3, h.Count("evt-1"))

	h.Notify("evt-1")
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, c.count())

	unsubB()
	h.Notify("evt-1")
	assert.Equal(t, 2, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 2, c.count())
}

func TestHubNotifyOtherKeyUntouched(t *testing.T) {
	h := NewHub(zap.NewNop(), NewStore())
	var a recorder
	h.Subscribe("evt-1", a.listen)
	h.Notify("evt-2")
	assert.Equal(t, 0, a.count())
}

func TestHubUnsubscribeReleasesKey(t *testing.T) {
	h := NewHub(zap.NewNop(), NewStore())
	for i := 0; i < 100; i++ {
		unsub := h.Subscribe("evt-1", func(Snapshot) {})
		unsub()
		unsub()
	}
	assert.Equal(t, 0, h.Count("evt-1"))
	assert.Equal(t, 0, h.Keys())
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop(), NewStore())
	var a, b recorder
	unsubA := h.Subscribe("evt-1", a.listen)
	h.Subscribe("evt-1", b.listen)

	unsubA()
	unsubA()
	assert.Equal(t, 1, h.Count("evt-1"))

	h.Notify("evt-1")
	assert.Equal(t, 1, b.count())
}

func TestHubListenerPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewHub(zap.New(core), NewStore())

	var a recorder
	h.Subscribe("evt-1", func(Snapshot) { panic("listener failure") })
	h.Subscribe("evt-1", a.listen)

	assert.NotPanics(t, func() { h.Notify("evt-1") })
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, logs.FilterMessage("listener panicked").Len())
}
