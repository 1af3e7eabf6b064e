// Package session 管理进程内的用户会话缓存
// 内存为权威数据源，未命中时从持久化存储恢复（cache-aside）
package session

import (
	"log"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/datalens-ai/datalens/internal/repository"
)

// State 单用户会话：文件记录集合加活跃文件指针
// ActiveFileID 非空时必然是 files 的 key。
// order 记住加入顺序，文件列表对外始终按此顺序返回
type State struct {
	UserID string

	mu           sync.RWMutex
	files        map[string]*FileRecord
	order        []string
	activeFileID string
}

func newState(userID string) *State {
	return &State{
		UserID: userID,
		files:  make(map[string]*FileRecord),
	}
}

// File 按 id 查找记录
func (s *State) File(id string) *FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[id]
}

// Resolve 解析目标记录：显式 id 优先于活跃文件指针
// 两者都解析不到已有记录时返回 nil
func (s *State) Resolve(fileID string) *FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fileID == "" {
		fileID = s.activeFileID
	}
	if fileID == "" {
		return nil
	}
	return s.files[fileID]
}

// AddFile 加入记录并置为活跃文件
func (s *State) AddFile(rec *FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.files[rec.ID] = rec
	s.activeFileID = rec.ID
}

// RemoveFile 移除记录，若为活跃文件则清空指针
// 返回被移除的记录，不存在时返回 nil
func (s *State) RemoveFile(id string) *FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.files[id]
	if !ok {
		return nil
	}
	delete(s.files, id)
	for i, fid := range s.order {
		if fid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeFileID == id {
		s.activeFileID = ""
	}
	return rec
}

// ActiveFileID 当前活跃文件 id
func (s *State) ActiveFileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeFileID
}

// ListFiles 全部记录，按加入顺序
func (s *State) ListFiles() []*FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*FileRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.files[id])
	}
	return records
}

// Manager 会话管理器
// 进程级缓存，TTL 为 0 时不过期（内存随用户数无上界增长，
// 通过配置 session.ttlMinutes 打开过期回收）
type Manager struct {
	mu       sync.Mutex
	cache    *gocache.Cache
	datasets repository.DatasetRepository
}

// NewManager 创建会话管理器
func NewManager(datasets repository.DatasetRepository, ttl time.Duration) *Manager {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 10 * time.Minute
	}
	return &Manager{
		cache:    gocache.New(expiration, cleanup),
		datasets: datasets,
	}
}

// GetOrCreate 获取会话，缓存命中直接返回，未命中则从持久化存储恢复
// 恢复的记录 Table/Agent 均为未加载，活跃文件取恢复顺序的首条
// 持久化读取失败按"无历史会话"处理，只记日志
func (m *Manager) GetOrCreate(userID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache.Get(userID); ok {
		return v.(*State)
	}

	state := newState(userID)

	files, err := m.datasets.ListByUser(userID)
	if err != nil {
		log.Printf("Warning: failed to restore session for user %s: %v", userID, err)
	} else {
		for _, df := range files {
			rec := NewRecord(df)
			state.files[rec.ID] = rec
			state.order = append(state.order, rec.ID)
			if state.activeFileID == "" {
				state.activeFileID = rec.ID
			}
		}
		if len(files) > 0 {
			log.Printf("Restored %d files for user %s", len(files), userID)
		}
	}

	m.cache.SetDefault(userID, state)
	return state
}

// Peek 只查缓存不触发恢复，后台任务用
func (m *Manager) Peek(userID string) *State {
	if v, ok := m.cache.Get(userID); ok {
		return v.(*State)
	}
	return nil
}
