package inflight

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestDoDeduplicatesConcurrent 同键并发调用只执行一次fn，
// 所有调用者收到同一结果。
func TestDoDeduplicatesConcurrent(t *testing.T) {
	g := New()
	var calls int32

	const n = 8
	var wg sync.WaitGroup
	results := make([]interface{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := g.Do("toggle-insumos-1", func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(50 * time.Millisecond)
				return "activo", nil
			})
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fn debió ejecutarse una vez, fueron %d", got)
	}
	for i, r := range results {
		if r != "activo" {
			t.Fatalf("llamada %d recibió %v", i, r)
		}
	}
}

// TestDoEvictsAfterSettle 执行结束后键立即清除，下一次调用
// 触发新的执行而不是沿用旧结果。
func TestDoEvictsAfterSettle(t *testing.T) {
	g := New()
	var calls int32

	for i := 0; i < 3; i++ {
		_, _, err := g.Do("toggle-compras-9", func() (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("llamadas secuenciales deben ejecutarse cada una, fueron %d", got)
	}
}

func TestDoDistinctKeysRunIndependently(t *testing.T) {
	g := New()
	var calls int32

	var wg sync.WaitGroup
	for _, key := range []string{ToggleKey("insumos", 1), ToggleKey("insumos", 2)} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			g.Do(key, func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				return nil, nil
			})
		}(key)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("claves distintas no comparten ejecución, fueron %d", got)
	}
}

func TestToggleKey(t *testing.T) {
	if got := ToggleKey("categoria_insumos", 42); got != "toggle-categoria_insumos-42" {
		t.Fatalf("clave inesperada: %q", got)
	}
}
