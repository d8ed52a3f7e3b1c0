package eligibility

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/domain/entity"
	"github.com/kailas-cloud/entsearch/internal/domain/entity/field"
)

type mockSource struct {
	flagsFn func(ctx context.Context) (map[string]string, error)
}

func (m *mockSource) Flags(ctx context.Context) (map[string]string, error) {
	return m.flagsFn(ctx)
}

func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	reg, err := entity.NewRegistry(
		entity.Reconstruct("product", []field.Field{
			field.Reconstruct("name", field.Text, 1, false),
		}, true),
		entity.Reconstruct("category", []field.Field{
			field.Reconstruct("name", field.Text, 1, false),
		}, true),
		entity.Reconstruct("audit", []field.Field{
			field.Reconstruct("action", field.Keyword, 0, false),
		}, false),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestAllowed(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	scope := domain.NewScope("en")

	tests := []struct {
		name   string
		entity string
		scope  domain.Scope
		want   bool
	}{
		{"searchable entity", "product", scope, true},
		{"not searchable", "audit", scope, false},
		{"unknown entity", "order", scope, false},
		{"bypass", "product", scope.WithBypass(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Allowed(tt.entity, tt.scope); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.entity, got, tt.want)
			}
		})
	}
}

func TestAllowed_GloballyDisabled(t *testing.T) {
	g := NewGuard(false, testRegistry(t))
	if g.Allowed("product", domain.NewScope("en")) {
		t.Error("expected false when search is disabled")
	}
}

func TestAllowed_Snapshot(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	scope := domain.NewScope("en")

	snap, _ := NewSnapshot(map[string]string{"product": "false", "category": "true"})
	g.Swap(snap)
	if g.Allowed("product", scope) {
		t.Error("product should be switched off")
	}
	if !g.Allowed("category", scope) {
		t.Error("category should stay on")
	}

	snap, _ = NewSnapshot(map[string]string{Wildcard: "0"})
	g.Swap(snap)
	if g.Allowed("category", scope) {
		t.Error("wildcard should switch off every entity")
	}

	g.Swap(nil)
	if !g.Allowed("product", scope) {
		t.Error("nil snapshot should enable everything")
	}
}

func TestNewSnapshot_SkipsUnparsable(t *testing.T) {
	snap, skipped := NewSnapshot(map[string]string{"product": "maybe", "category": " false "})
	if len(skipped) != 1 || skipped[0] != "product" {
		t.Errorf("skipped = %v", skipped)
	}
	if snap.Disabled("product") {
		t.Error("unparsable value must not disable")
	}
	if !snap.Disabled("category") {
		t.Error("category should be disabled")
	}
}

func TestRefresh(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	src := &mockSource{flagsFn: func(context.Context) (map[string]string, error) {
		return map[string]string{"product": "false"}, nil
	}}
	r := NewRefresher(g, src, 0, nil)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Allowed("product", domain.NewScope("en")) {
		t.Error("refresh should apply the snapshot")
	}
}

func TestRefresh_ErrorKeepsSnapshot(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	snap, _ := NewSnapshot(map[string]string{"product": "false"})
	g.Swap(snap)

	src := &mockSource{flagsFn: func(context.Context) (map[string]string, error) {
		return nil, errors.New("connection refused")
	}}
	r := NewRefresher(g, src, 0, nil)

	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if g.Allowed("product", domain.NewScope("en")) {
		t.Error("previous snapshot should be kept")
	}
	if !g.Allowed("category", domain.NewScope("en")) {
		t.Error("entities enabled by the kept snapshot should stay allowed")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	r := NewRefresher(g, StaticSource{"product": "true"}, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)
}

func TestAllowed_ConcurrentSwap(t *testing.T) {
	g := NewGuard(true, testRegistry(t))
	scope := domain.NewScope("en")
	on, _ := NewSnapshot(nil)
	off, _ := NewSnapshot(map[string]string{"product": "false"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				g.Swap(on)
			} else {
				g.Swap(off)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = g.Allowed("product", scope)
		}()
	}
	wg.Wait()
}

func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := StaticSource{"product": "false"}
	m, err := src.Flags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m["product"] = "true"
	if src["product"] != "false" {
		t.Error("Flags must return a copy")
	}
}
