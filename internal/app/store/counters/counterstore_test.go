package counterstore_test

import (
	"sync"
	"testing"

	counterstore "github.com/suashub/suashub/internal/app/store/counters"
	"github.com/suashub/suashub/internal/testutil"
)

func TestStore_Next(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Next(ctx, counterstore.SeqCasos)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Errorf("Next = %d, want %d", got, want)
		}
	}

	other, err := store.Next(ctx, counterstore.SeqRegistros)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if other != 1 {
		t.Errorf("sequences must be independent, got %d", other)
	}
}

func TestStore_Next_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Create the sequence first so the upserts below do not race.
	if _, err := store.Next(ctx, counterstore.SeqAtendimentos); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	const n = 20
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Next(ctx, counterstore.SeqAtendimentos)
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d distinct ids, got %d", n, len(seen))
	}
}
