package iqueue

import (
	"testing"
)

func TestQueueKeepsSendOrder(t *testing.T) {
	q := New()
	go q.Loop()
	for i := 0; i < 5; i++ {
		q.Send(i)
	}
	for i := 0; i < 5; i++ {
		v := <-q.Receive()
		if v.(int) != i {
			t.Errorf("receive order got: %v, expected: %v", v, i)
		}
	}
}

func TestQueueLen(t *testing.T) {
	q := New()
	q.Queue().PushBack(1)
	q.Queue().PushBack(2)
	if q.Len() != 2 {
		t.Errorf("calling the Len method, got: %v, expected: 2", q.Len())
	}
}
