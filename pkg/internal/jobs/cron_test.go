package jobs

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/internal/storage/local"
	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
	"github.com/yeisme/filesort/pkg/internal/types"
	"github.com/yeisme/filesort/pkg/metrics"
	"github.com/yeisme/filesort/pkg/scheduler"
)

func TestStatsRefreshJob(t *testing.T) {
	ctx := context.Background()
	store := local.NewWithFs(afero.NewMemMapFs())

	_, _ = store.EnsureDir(ctx, "log")
	for _, p := range []string{"log/log-1.log", "log/log-2.log"} {
		if _, err := store.Create(ctx, types.Object{Path: p}, bytes.NewReader(nil)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}

	sched.Start()
	defer sched.Stop()

	mgr := &storage.Manager{Files: store, Sequence: sequence.NewMemory()}
	if err := RegisterCronJobs(sched, configs.JobsConfig{Enabled: true, StatsCron: "0 0 1 1 *"}, mgr); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := sched.RunNow(JobStatsRefresh); err != nil {
		t.Fatalf("run now: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(metrics.CategoryEntries.WithLabelValues("log")) == 2 {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("filesort_category_entries{category=\"log\"} not updated")
}

func TestRegisterRequiresManager(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	if err := RegisterCronJobs(sched, configs.JobsConfig{StatsCron: "*/5 * * * *"}, nil); err == nil {
		t.Error("expected error without storage manager")
	}
}
