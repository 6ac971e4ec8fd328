// internal/api/job/store_test.go
package job

import (
	"errors"
	"sync"
	"testing"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100)

	job := store.Create(core.TriggerManual)
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}
	if job.Trigger != core.TriggerManual {
		t.Errorf("expected manual trigger, got %s", job.Trigger)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID {
		t.Error("IDs don't match")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(10)
	if _, err := store.Get("nope"); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if err := store.Update("nope", func(*Job) {}); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100)
	job := store.Create(core.TriggerManual)

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.SetProgress(5, 10)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected running, got %s", retrieved.Status)
	}
	if retrieved.Progress != 50 || retrieved.Done != 5 || retrieved.Total != 10 {
		t.Errorf("unexpected progress %+v", retrieved)
	}
	if retrieved.Finished() {
		t.Error("running job reported finished")
	}
}

func TestJob_CompleteAndFail(t *testing.T) {
	var j Job
	j.Complete("scan-1")
	if j.Status != StatusComplete || j.ScanID != "scan-1" || j.Progress != 100 || !j.Finished() {
		t.Errorf("unexpected completed job %+v", j)
	}

	var f Job
	f.Fail(core.WrapError(core.ErrProviderUnreachable, errors.New("dial tcp")))
	if f.Status != StatusFailed || !f.Finished() {
		t.Errorf("unexpected failed job %+v", f)
	}
	if f.Error == nil || f.Error.Code != core.ErrProviderUnreachable.Code {
		t.Errorf("expected provider error info, got %+v", f.Error)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(10)
	job := store.Create(core.TriggerManual)

	got, _ := store.Get(job.ID)
	got.Status = StatusFailed

	again, _ := store.Get(job.ID)
	if again.Status != StatusPending {
		t.Error("mutating a returned job changed the stored one")
	}
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(3)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, store.Create(core.TriggerManual).ID)
	}

	if _, err := store.Get(ids[0]); err == nil {
		t.Error("expected oldest job evicted")
	}
	if _, err := store.Get(ids[1]); err == nil {
		t.Error("expected second job evicted")
	}

	list := store.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(list))
	}
	if list[0].ID != ids[4] || list[2].ID != ids[2] {
		t.Error("expected newest first")
	}
}

func TestStore_Concurrent(t *testing.T) {
	store := NewStore(1000)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			j := store.Create(core.TriggerManual)
			_ = store.Update(j.ID, func(j *Job) { j.SetProgress(i, 50) })
			_, _ = store.Get(j.ID)
		}(i)
	}
	wg.Wait()

	if n := len(store.List()); n != 50 {
		t.Errorf("expected 50 jobs, got %d", n)
	}
}
