package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetReporting(t *testing.T) {
	s := newTestStore(t)

	e := &ReportingEntry{
		Endpoint:  1,
		Cluster:   0x0402,
		Attribute: 0x0000,
		Type:      0x29,
		Min:       10,
		Max:       300,
		Change:    50,
		UpdatedAt: time.Now().Truncate(time.Millisecond),
	}
	if err := s.SaveReporting(e); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetReporting(e.Key())
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != e.Type {
		t.Errorf("type = 0x%02X, want 0x%02X", got.Type, e.Type)
	}
	if got.Min != 10 || got.Max != 300 {
		t.Errorf("min/max = %d/%d, want 10/300", got.Min, got.Max)
	}
	if got.Change != 50 {
		t.Errorf("change = %d, want 50", got.Change)
	}
	if !got.UpdatedAt.Equal(e.UpdatedAt) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, e.UpdatedAt)
	}
}

func TestSaveReportingOverwrites(t *testing.T) {
	s := newTestStore(t)

	e := &ReportingEntry{Endpoint: 1, Cluster: 0x0006, Attribute: 0, Type: 0x10, Max: 60}
	if err := s.SaveReporting(e); err != nil {
		t.Fatal(err)
	}
	e.Max = 120
	if err := s.SaveReporting(e); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListReporting(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Max != 120 {
		t.Errorf("list = %+v", list)
	}
}

func TestDeleteReporting(t *testing.T) {
	s := newTestStore(t)

	e := &ReportingEntry{Endpoint: 1, Cluster: 0x0006, Attribute: 0}
	if err := s.SaveReporting(e); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteReporting(e.Key()); err != nil {
		t.Fatal(err)
	}

	_, err := s.GetReporting(e.Key())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListReportingByEndpoint(t *testing.T) {
	s := newTestStore(t)

	entries := []*ReportingEntry{
		{Endpoint: 2, Cluster: 0x0402, Attribute: 0},
		{Endpoint: 1, Cluster: 0x0405, Attribute: 0},
		{Endpoint: 1, Cluster: 0x0006, Attribute: 0},
		{Endpoint: 1, Cluster: 0x0402, Attribute: 1},
		{Endpoint: 1, Cluster: 0x0402, Attribute: 0},
		{Endpoint: 3, Cluster: 0x0000, Attribute: 0},
	}
	for _, e := range entries {
		if err := s.SaveReporting(e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListReporting(1)
	if err != nil {
		t.Fatal(err)
	}
	want := []ReportingKey{
		{1, 0x0006, 0},
		{1, 0x0402, 0},
		{1, 0x0402, 1},
		{1, 0x0405, 0},
	}
	if len(list) != len(want) {
		t.Fatalf("list count = %d, want %d", len(list), len(want))
	}
	for i, k := range want {
		if list[i].Key() != k {
			t.Errorf("entry %d = %+v, want %+v", i, list[i].Key(), k)
		}
	}

	empty, err := s.ListReporting(9)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("endpoint 9 entries = %d, want 0", len(empty))
	}
}

func TestEndpointStateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEndpointState(1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReporting(&ReportingEntry{Endpoint: 1, Cluster: 0x0402, Max: 900}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.GetReporting(ReportingKey{Endpoint: 1, Cluster: 0x0402})
	if err != nil {
		t.Fatal(err)
	}
	if got.Max != 900 {
		t.Errorf("max = %d, want 900", got.Max)
	}
}
