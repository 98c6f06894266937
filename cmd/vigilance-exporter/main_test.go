package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAwaitDone(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()
	assert.True(t, awaitDone(done, 5*time.Second))

	assert.False(t, awaitDone(make(chan struct{}), 10*time.Millisecond))
}
