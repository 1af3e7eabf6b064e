// Package warmup 提供预热器单元测试
package warmup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/datalens-ai/datalens/internal/config"
	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service/analysis"
	"github.com/datalens-ai/datalens/internal/service/ingest"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/table"
	"github.com/datalens-ai/datalens/internal/testutil"
)

type fakeEngine struct {
	agentsBuilt atomic.Int64
	buildErr    error
}

func (e *fakeEngine) NewAgent(_ context.Context, _ *table.Table) (analysis.Agent, error) {
	if e.buildErr != nil {
		return nil, e.buildErr
	}
	e.agentsBuilt.Add(1)
	return fakeAgent{}, nil
}

type fakeAgent struct{}

func (fakeAgent) Ask(_ context.Context, _ string) (string, error) { return "columns", nil }

type mockDatasetRepo struct {
	files []*model.DatasetFile
}

func (m *mockDatasetRepo) Create(df *model.DatasetFile) error { return nil }
func (m *mockDatasetRepo) GetByID(id string) (*model.DatasetFile, error) {
	return nil, errors.New("not found")
}
func (m *mockDatasetRepo) ListByUser(userID string) ([]*model.DatasetFile, error) {
	return m.files, nil
}
func (m *mockDatasetRepo) Delete(id string) error { return nil }

func newTestWarmer(t *testing.T, repo *mockDatasetRepo, engine analysis.Engine) (*Warmer, *session.Manager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Ingest.FetchTimeout = 5
	cfg.Ingest.TitleTimeout = 2
	sessions := session.NewManager(repo, 0)
	monitor := ingest.NewService(cfg, repo)
	return NewWarmer(sessions, monitor, engine, 2), sessions
}

// ========== warm 测试 ==========

func TestWarmer_BuildsAgent(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	repo := &mockDatasetRepo{files: []*model.DatasetFile{
		{ID: "f1", UserID: "u1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile},
	}}
	engine := &fakeEngine{}
	w, sessions := newTestWarmer(t, repo, engine)

	sessions.GetOrCreate("u1")
	w.Schedule("u1", "f1")
	w.Wait()

	if engine.agentsBuilt.Load() != 1 {
		t.Fatalf("agents built = %d, want 1", engine.agentsBuilt.Load())
	}
	rec := sessions.Peek("u1").File("f1")
	rec.Lock()
	if rec.Agent == nil {
		t.Error("agent should be cached on the record")
	}
	if rec.Table == nil {
		t.Error("table should be loaded during warmup")
	}
	rec.Unlock()
}

func TestWarmer_NoSessionIsNoop(t *testing.T) {
	engine := &fakeEngine{}
	w, _ := newTestWarmer(t, &mockDatasetRepo{}, engine)

	// 会话不在缓存中时不得触发恢复或构建
	w.Schedule("ghost", "f1")
	w.Wait()

	if engine.agentsBuilt.Load() != 0 {
		t.Errorf("agents built = %d, want 0", engine.agentsBuilt.Load())
	}
}

func TestWarmer_DeletedRecordIsNoop(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	repo := &mockDatasetRepo{files: []*model.DatasetFile{
		{ID: "f1", UserID: "u1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile},
	}}
	engine := &fakeEngine{}
	w, sessions := newTestWarmer(t, repo, engine)

	state := sessions.GetOrCreate("u1")
	state.RemoveFile("f1")

	w.Schedule("u1", "f1")
	w.Wait()

	if engine.agentsBuilt.Load() != 0 {
		t.Errorf("agents built = %d, want 0 for deleted record", engine.agentsBuilt.Load())
	}
}

func TestWarmer_SkipsAlreadyWarm(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	repo := &mockDatasetRepo{files: []*model.DatasetFile{
		{ID: "f1", UserID: "u1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile},
	}}
	engine := &fakeEngine{}
	w, sessions := newTestWarmer(t, repo, engine)

	state := sessions.GetOrCreate("u1")
	rec := state.File("f1")
	rec.Lock()
	rec.Agent = fakeAgent{}
	rec.Unlock()

	w.Schedule("u1", "f1")
	w.Wait()

	if engine.agentsBuilt.Load() != 0 {
		t.Errorf("agents built = %d, want 0 when already warm", engine.agentsBuilt.Load())
	}
}

func TestWarmer_BuildFailureIsNonFatal(t *testing.T) {
	path := testutil.WriteTempCSV(t, testutil.SampleSalesCSV)
	repo := &mockDatasetRepo{files: []*model.DatasetFile{
		{ID: "f1", UserID: "u1", FileName: "sales.csv", FilePath: path, Source: model.SourceFile},
	}}
	engine := &fakeEngine{buildErr: errors.New("model down")}
	w, sessions := newTestWarmer(t, repo, engine)

	sessions.GetOrCreate("u1")
	w.Schedule("u1", "f1")
	w.Wait()

	rec := sessions.Peek("u1").File("f1")
	rec.Lock()
	if rec.Agent != nil {
		t.Error("failed warmup must not cache an agent")
	}
	rec.Unlock()
}
