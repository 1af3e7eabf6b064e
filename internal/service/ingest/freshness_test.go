package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/testutil"
)

type stubAgent struct{}

func (stubAgent) Ask(_ context.Context, _ string) (string, error) { return "ok", nil }

// ========== 文件来源新鲜度 测试 ==========

func TestEnsureFresh_LazyFirstLoad(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	svc := newTestService(t, &mockDatasetRepo{})

	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile,
	})

	rec.Lock()
	defer rec.Unlock()

	tbl, err := svc.EnsureFresh(context.Background(), rec)
	if err != nil {
		t.Fatalf("EnsureFresh() error: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("rows = %d, want 3", tbl.NumRows())
	}
	if rec.LastModified.IsZero() {
		t.Error("last modified should be captured on first load")
	}
}

func TestEnsureFresh_ReloadOnChange(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	svc := newTestService(t, &mockDatasetRepo{})

	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile,
	})

	rec.Lock()
	defer rec.Unlock()

	if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
		t.Fatalf("first EnsureFresh() error: %v", err)
	}
	firstTable := rec.Table
	rec.Agent = stubAgent{}

	// 磁盘文件变新，表格重载且 Agent 失效
	testutil.Touch(t, path, rec.LastModified.Add(2*time.Second))

	if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
		t.Fatalf("second EnsureFresh() error: %v", err)
	}
	if rec.Table == firstTable {
		t.Error("table should be reloaded after disk change")
	}
	if rec.Agent != nil {
		t.Error("agent must be invalidated after reload")
	}

	// 无进一步变化则不重载，Agent 保留
	rec.Agent = stubAgent{}
	reloaded := rec.Table
	if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
		t.Fatalf("third EnsureFresh() error: %v", err)
	}
	if rec.Table != reloaded {
		t.Error("unchanged file should not reload")
	}
	if rec.Agent == nil {
		t.Error("agent must survive a no-op freshness check")
	}
}

func TestEnsureFresh_StatFailureKeepsTable(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	svc := newTestService(t, &mockDatasetRepo{})

	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile,
	})

	rec.Lock()
	defer rec.Unlock()

	if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
		t.Fatalf("EnsureFresh() error: %v", err)
	}

	// 文件消失不致命，继续用内存里的表格
	rec.Path = "/nonexistent/gone.csv"
	tbl, err := svc.EnsureFresh(context.Background(), rec)
	if err != nil {
		t.Fatalf("EnsureFresh() after stat failure: %v", err)
	}
	if tbl == nil || tbl.NumRows() != 3 {
		t.Error("stale table should be kept when source is unreachable")
	}
}

// ========== url 来源新鲜度 测试 ==========

func TestEnsureFresh_URLRefetchesEveryCall(t *testing.T) {
	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(testutil.SampleSalesCSV))
	}))
	defer ts.Close()

	svc := newTestService(t, &mockDatasetRepo{})
	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sheet.csv", Source: model.SourceURL, SourceURL: ts.URL,
	})

	rec.Lock()
	defer rec.Unlock()

	for i := 0; i < 3; i++ {
		if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
			t.Fatalf("EnsureFresh() #%d error: %v", i, err)
		}
	}
	if hits.Load() != 3 {
		t.Errorf("remote fetched %d times, want 3 (unconditional refetch)", hits.Load())
	}
}

func TestEnsureFresh_URLFailureKeepsLastGood(t *testing.T) {
	var fail atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(testutil.SampleSalesCSV))
	}))
	defer ts.Close()

	svc := newTestService(t, &mockDatasetRepo{})
	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sheet.csv", Source: model.SourceURL, SourceURL: ts.URL,
	})

	rec.Lock()
	defer rec.Unlock()

	if _, err := svc.EnsureFresh(context.Background(), rec); err != nil {
		t.Fatalf("EnsureFresh() error: %v", err)
	}
	lastGood := rec.Table

	fail.Store(true)
	tbl, err := svc.EnsureFresh(context.Background(), rec)
	if err != nil {
		t.Fatalf("refresh failure should not be fatal: %v", err)
	}
	if tbl != lastGood {
		t.Error("should keep last good table when refetch fails")
	}
}

func TestEnsureFresh_URLFailureNoFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newTestService(t, &mockDatasetRepo{})
	rec := session.NewRecord(&model.DatasetFile{
		ID: "f1", FileName: "sheet.csv", Source: model.SourceURL, SourceURL: ts.URL,
	})

	rec.Lock()
	defer rec.Unlock()

	// 既没有最后一份好数据也没有磁盘副本
	if _, err := svc.EnsureFresh(context.Background(), rec); err == nil {
		t.Error("expected error when no data is available at all")
	}
}
