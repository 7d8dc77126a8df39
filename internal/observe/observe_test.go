package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservers_NotifyInSubscriptionOrder(t *testing.T) {
	var o Observers[int]
	var got []string

	o.Subscribe(func(v int) { got = append(got, "a") })
	o.Subscribe(func(v int) { got = append(got, "b") })

	o.Notify(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestObservers_Unsubscribe(t *testing.T) {
	var o Observers[string]
	calls := 0

	unsubscribe := o.Subscribe(func(string) { calls++ })
	o.Notify("x")
	unsubscribe()
	unsubscribe()
	o.Notify("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, o.Len())
}
