// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	t0 := time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC)
	m := NewManual(t0)
	assert.Equal(t, t0, m.Now())

	m.Advance(3 * time.Second)
	assert.Equal(t, t0.Add(3*time.Second), m.Now())

	m.Set(t0)
	assert.Equal(t, t0, m.Now())
}

func TestRealMovesForward(t *testing.T) {
	var c Clock = Real{}
	a := c.Now()
	assert.False(t, c.Now().Before(a))
}
