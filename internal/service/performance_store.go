package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProfilePersistence 画像持久化边界 内存态是运行期的权威，落盘尽力而为
type ProfilePersistence interface {
	LoadAll() (map[uint]*model.UserPerformanceProfile, error)
	Save(userID uint, profile *model.UserPerformanceProfile) error
}

// PerformanceStore 学习者画像仓库 全部算法组件的唯一事实来源
//
// 并发契约：同一学习者的读改写序列必须串行。这里按学习者持锁，
// Update 的计数变更 + 留存裁剪在同一临界区内完成，要么全做要么不做；
// Get 在临界区内做深拷贝，预测侧拿到的是一致性快照。
// 持久化写走异步队列，慢盘不会拖住请求线程。
type PerformanceStore struct {
	mu        sync.Mutex
	profiles  map[uint]*model.UserPerformanceProfile
	locks     map[uint]*sync.Mutex
	repo      ProfilePersistence
	retention *RetentionPolicy

	saveCh chan uint
	wg     sync.WaitGroup
	closed chan struct{}
}

func NewPerformanceStore(repo ProfilePersistence, retention *RetentionPolicy) *PerformanceStore {
	s := &PerformanceStore{
		profiles:  make(map[uint]*model.UserPerformanceProfile),
		locks:     make(map[uint]*sync.Mutex),
		repo:      repo,
		retention: retention,
		saveCh:    make(chan uint, 256),
		closed:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.saveLoop()
	return s
}

// Load 启动时从持久层恢复全部画像
// 读取失败只告警并以空仓库启动：可用性优先于历史数据。
func (s *PerformanceStore) Load() {
	profiles, err := s.repo.LoadAll()
	if err != nil {
		logger.Log.Error("Failed to load performance profiles, starting empty", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	logger.Log.Info("Performance profiles loaded", zap.Int("count", len(profiles)))
}

// Get 返回学习者画像的一致性快照 首次访问返回零值画像，永不失败
func (s *PerformanceStore) Get(userID uint) *model.UserPerformanceProfile {
	lock := s.learnerLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.profileLocked(userID).Clone()
}

// Update 记录一次作答结果
// 总计数、科目/知识点/难度计数、近期窗口在同一临界区内一起移动，
// 随后在原地执行留存裁剪，最后异步入队持久化。
func (s *PerformanceStore) Update(userID uint, qc model.QuestionContext, wasCorrect bool) {
	lock := s.learnerLock(userID)
	lock.Lock()

	p := s.profileLocked(userID)

	p.TotalQuestions++
	subject := p.SubjectCounter(qc.SubjectID)
	subject.Total++
	topic := p.TopicCounter(qc.SubjectID, qc.TopicID)
	topic.Total++
	difficulty := p.DifficultyCounter(qc.Difficulty)
	difficulty.Total++

	if wasCorrect {
		p.CorrectAnswers++
		subject.Correct++
		topic.Correct++
		difficulty.Correct++
	}

	p.RecentOutcomes = append(p.RecentOutcomes, wasCorrect)
	if len(p.RecentOutcomes) > model.RecentOutcomeWindow {
		p.RecentOutcomes = p.RecentOutcomes[len(p.RecentOutcomes)-model.RecentOutcomeWindow:]
	}

	now := time.Now()
	p.LastActivity = &now

	if s.retention.Apply(p) {
		logger.Log.Info("Profile retention trim executed",
			zap.Uint("userId", userID),
			zap.Uint("totalQuestions", p.TotalQuestions))
	}

	lock.Unlock()

	s.enqueueSave(userID)
}

// Flush 同步落盘全部画像，进程退出前调用
func (s *PerformanceStore) Flush() {
	s.mu.Lock()
	userIDs := make([]uint, 0, len(s.profiles))
	for id := range s.profiles {
		userIDs = append(userIDs, id)
	}
	s.mu.Unlock()

	for _, id := range userIDs {
		s.saveProfile(id)
	}
}

// Stop 关闭异步写队列并等待在途写入完成
func (s *PerformanceStore) Stop() {
	close(s.closed)
	s.wg.Wait()
	s.Flush()
}

func (s *PerformanceStore) learnerLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// profileLocked 调用方必须已持有该学习者的锁
func (s *PerformanceStore) profileLocked(userID uint) *model.UserPerformanceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = model.NewUserPerformanceProfile()
		s.profiles[userID] = p
	}
	return p
}

// enqueueSave 非阻塞入队 队列满时丢弃本次写（后续更新会再触发），不阻塞请求
func (s *PerformanceStore) enqueueSave(userID uint) {
	select {
	case s.saveCh <- userID:
	default:
		logger.Log.Warn("Profile save queue full, write skipped", zap.Uint("userId", userID))
	}
}

func (s *PerformanceStore) saveLoop() {
	defer s.wg.Done()
	for {
		select {
		case userID := <-s.saveCh:
			s.saveProfile(userID)
		case <-s.closed:
			// 清空剩余队列再退出
			for {
				select {
				case userID := <-s.saveCh:
					s.saveProfile(userID)
				default:
					return
				}
			}
		}
	}
}

// saveProfile 持久化失败只记日志，不回滚内存态
func (s *PerformanceStore) saveProfile(userID uint) {
	lock := s.learnerLock(userID)
	lock.Lock()
	snapshot := s.profileLocked(userID).Clone()
	lock.Unlock()

	if err := s.repo.Save(userID, snapshot); err != nil {
		logger.Log.Error("Failed to persist performance profile",
			zap.Uint("userId", userID), zap.Error(err))
	}
}
