package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	A, B int
}

func TestNewLatest(t *testing.T) {
	l := NewLatest(&record{A: 1, B: 1})
	assert.NotNil(t, l.notify, "notify channel should be initialized")
	assert.Equal(t, record{A: 1, B: 1}, *l.Load())
	select {
	case <-l.Changed():
		t.Fatal("a fresh Latest should not signal a change")
	default:
	}
}

func TestPublishAndLoad(t *testing.T) {
	first := &record{A: 1, B: 1}
	second := &record{A: 2, B: 2}
	l := NewLatest(first)

	l.Publish(second)

	assert.Same(t, second, l.Load(), "Load should return the published pointer")
	assert.Equal(t, record{A: 1, B: 1}, *first, "the previous value must stay untouched")
}

func TestChangedCoalesces(t *testing.T) {
	l := NewLatest(&record{})

	l.Publish(&record{A: 1})
	l.Publish(&record{A: 2})

	select {
	case <-l.Changed():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-l.Changed():
		t.Fatal("channel should be empty")
	default:
	}

	assert.Equal(t, 2, l.Load().A, "Value should be the last one published")
}

func TestConcurrentReadersSeeWholeValues(t *testing.T) {
	l := NewLatest(&record{})
	done := make(chan struct{})

	go func() {
		for i := 1; i <= 1000; i++ {
			l.Publish(&record{A: i, B: i})
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0
			for {
				v := l.Load()
				if v.A != v.B {
					t.Errorf("torn read: %+v", *v)
					return
				}
				if v.A < last {
					t.Errorf("read a stale value: got %d, last was %d", v.A, last)
					return
				}
				last = v.A
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, l.Load().A, "Final value should be 1000")
}
