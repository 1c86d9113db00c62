package sequence_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
)

func seedWith(n int) sequence.SeedFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestRegisteredTypes(t *testing.T) {
	got := sequence.GetRegisteredTypes()

	want := map[configs.SequenceType]bool{
		configs.SequenceMemory:  false,
		configs.SequenceListing: false,
		configs.SequenceRedis:   false,
		configs.SequenceNATS:    false,
	}
	for _, typ := range got {
		want[typ] = true
	}

	for typ, ok := range want {
		if !ok {
			t.Errorf("sequence type %s not registered", typ)
		}
	}

	if _, err := sequence.New(context.Background(), configs.SequenceConfig{Type: "etcd"}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestMemorySeedsOnce(t *testing.T) {
	ctx := context.Background()
	seq := sequence.NewMemory()

	calls := 0
	seed := func(context.Context) (int, error) {
		calls++
		return 3, nil
	}

	for want := 4; want <= 6; want++ {
		n, err := seq.Next(ctx, "jpg", seed)
		if err != nil {
			t.Fatalf("next: %v", err)
		}

		if n != want {
			t.Errorf("expected %d, got %d", want, n)
		}
	}

	if calls != 1 {
		t.Errorf("seed called %d times, want 1", calls)
	}

	// 分类之间互不影响
	if n, _ := seq.Next(ctx, "png", seedWith(0)); n != 1 {
		t.Errorf("png should start at 1, got %d", n)
	}

	snap, _ := seq.Snapshot(ctx)
	if snap["jpg"] != 6 || snap["png"] != 1 {
		t.Errorf("unexpected snapshot: %v", snap)
	}
}

func TestMemorySeedError(t *testing.T) {
	seq := sequence.NewMemory()
	boom := errors.New("disk gone")

	_, err := seq.Next(context.Background(), "pdf", func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected seed error, got %v", err)
	}

	// 失败后不应留下计数器
	if n, _ := seq.Next(context.Background(), "pdf", seedWith(0)); n != 1 {
		t.Errorf("expected 1 after failed seed, got %d", n)
	}
}

func TestMemoryForgetReseeds(t *testing.T) {
	ctx := context.Background()
	seq := sequence.NewMemory()

	for range 3 {
		if _, err := seq.Next(ctx, "txt", seedWith(0)); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	if err := seq.Forget(ctx, "txt"); err != nil {
		t.Fatalf("forget: %v", err)
	}

	snap, _ := seq.Snapshot(ctx)
	if _, ok := snap["txt"]; ok {
		t.Errorf("counter still present after forget: %v", snap)
	}

	// 重新读取种子，而不是沿用 3
	if n, _ := seq.Next(ctx, "txt", seedWith(0)); n != 1 {
		t.Errorf("expected 1 after forget, got %d", n)
	}

	// 未知分类同样不报错
	if err := seq.Forget(ctx, "nope"); err != nil {
		t.Errorf("forget unknown: %v", err)
	}
}

func TestMemoryConcurrentUnique(t *testing.T) {
	ctx := context.Background()
	seq := sequence.NewMemory()

	const workers = 64

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool, workers)
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			n, err := seq.Next(ctx, "gif", seedWith(0))
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()

			if seen[n] {
				t.Errorf("duplicate sequence %d", n)
			}

			seen[n] = true
		}()
	}

	wg.Wait()

	for i := 1; i <= workers; i++ {
		if !seen[i] {
			t.Errorf("sequence %d missing", i)
		}
	}
}

func TestListingIsCountPlusOne(t *testing.T) {
	seq, err := sequence.New(context.Background(), configs.SequenceConfig{Type: configs.SequenceListing})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for range 2 {
		n, err := seq.Next(context.Background(), "jpg", seedWith(7))
		if err != nil {
			t.Fatalf("next: %v", err)
		}

		if n != 8 {
			t.Errorf("expected 8, got %d", n)
		}
	}
}

func runBackend(t *testing.T, seq sequence.Sequencer) {
	t.Helper()

	ctx := context.Background()
	category := "t" + uuid.NewString()[:8] + "+x"

	first, err := seq.Next(ctx, category, seedWith(5))
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	if first != 6 {
		t.Errorf("expected seeded 6, got %d", first)
	}

	second, err := seq.Next(ctx, category, seedWith(100))
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	if second != 7 {
		t.Errorf("seed must be ignored once initialized, got %d", second)
	}

	snap, err := seq.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if snap[category] != 7 {
		t.Errorf("snapshot[%s] = %d", category, snap[category])
	}
}

// Optional: enable with ENABLE_REDIS_TEST=1 and REDIS_ADDR set (default 127.0.0.1:6379).
func TestRedisSequencer(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	cfg := configs.SequenceConfig{Type: configs.SequenceRedis, Namespace: "filesort-test"}
	cfg.Redis.Addr = addr

	seq, err := sequence.New(context.Background(), cfg)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer seq.Close()

	runBackend(t, seq)
}

// Optional: enable with ENABLE_NATS_TEST=1 and NATS_URL set (default nats://127.0.0.1:4222).
func TestNATSSequencer(t *testing.T) {
	if os.Getenv("ENABLE_NATS_TEST") == "" {
		t.Skip("set ENABLE_NATS_TEST=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	cfg := configs.SequenceConfig{Type: configs.SequenceNATS, Namespace: "filesort-test"}
	cfg.NATS.URL = url
	cfg.NATS.Bucket = "filesort-seq-test"

	seq, err := sequence.New(context.Background(), cfg)
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}
	defer seq.Close()

	runBackend(t, seq)
}
