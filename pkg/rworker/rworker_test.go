package rworker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestJobRunsAllAndCollectsError(t *testing.T) {
	var wg sync.WaitGroup
	rate := make(chan struct{}, 2)
	errCh := make(chan error, 1)

	var ran int64
	for i := 0; i < 10; i++ {
		i := i
		Job(&wg, func() error {
			atomic.AddInt64(&ran, 1)
			if i == 3 {
				return errors.New("job failed")
			}
			return nil
		}, rate, errCh)
	}
	wg.Wait()

	if ran != 10 {
		t.Errorf("jobs ran got: %v, expected: 10", ran)
	}
	select {
	case err := <-errCh:
		if err == nil {
			t.Errorf("collected error got: nil, expected: non-nil")
		}
	default:
		t.Errorf("no error was collected")
	}
}
