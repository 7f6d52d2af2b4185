package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockKVPinger struct {
	err error
}

func (m *mockKVPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockCollectionSet struct {
	ready   int
	skipped int
}

func (m *mockCollectionSet) Ready() int   { return m.ready }
func (m *mockCollectionSet) Skipped() int { return m.skipped }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockKVPinger{}, &mockEmbeddingChecker{}, &mockCollectionSet{ready: 6})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["kv"] != CheckOK {
		t.Errorf("expected kv %q, got %q", CheckOK, r.Checks["kv"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
	if r.Checks["collections"] != CheckOK {
		t.Errorf("expected collections %q, got %q", CheckOK, r.Checks["collections"])
	}
	if r.Ready != 6 || r.Skipped != 0 {
		t.Errorf("counts = %d/%d, want 6/0", r.Ready, r.Skipped)
	}
}

func TestCheck_KVError(t *testing.T) {
	svc := New(&mockKVPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}, &mockCollectionSet{ready: 6})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["kv"] != CheckError {
		t.Errorf("expected kv %q, got %q", CheckError, r.Checks["kv"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockKVPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}, &mockCollectionSet{ready: 6})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_ZeroReadyCollectionsDegrades(t *testing.T) {
	svc := New(&mockKVPinger{}, &mockEmbeddingChecker{}, &mockCollectionSet{ready: 0, skipped: 3})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["collections"] != CheckError {
		t.Errorf("expected collections %q, got %q", CheckError, r.Checks["collections"])
	}
	if r.Ready != 0 || r.Skipped != 3 {
		t.Errorf("counts = %d/%d, want 0/3", r.Ready, r.Skipped)
	}
}

func TestCheck_SkippedCollectionsStayHealthy(t *testing.T) {
	// Some artifacts failed to load but search still has collections to hit.
	svc := New(nil, nil, &mockCollectionSet{ready: 4, skipped: 2})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["collections"] != CheckOK {
		t.Errorf("expected collections %q, got %q", CheckOK, r.Checks["collections"])
	}
	if r.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", r.Skipped)
	}
}

func TestCheck_OptionalProbesAbsent(t *testing.T) {
	svc := New(nil, nil, &mockCollectionSet{ready: 1})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["kv"]; ok {
		t.Error("kv check should be absent when no store is configured")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when the provider has no probe")
	}
}

func TestCheck_KVErrorWithoutEmbedding(t *testing.T) {
	svc := New(&mockKVPinger{err: errors.New("fail")}, nil, &mockCollectionSet{ready: 2})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["kv"] != CheckError {
		t.Error("expected kv error")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}
