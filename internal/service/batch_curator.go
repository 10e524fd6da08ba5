package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 经验分支切换点：学习者在该科目答满 30 题后启用弱点导向选题
const experiencedLearnerMin = 30

// 经验分支中确定性选取的弱点题占比
const weakSelectionRatio = 0.7

// scoredQuestion 打分后的候选题，只在选题过程中存在
type scoredQuestion struct {
	question model.Question
	score    float64
}

// BatchCurator 批量选题
// 新学习者按难度分层随机覆盖，老学习者 70% 弱点 + 30% 随机多样性，
// 输出前打乱顺序，不让难度/弱点排序泄露给前端。
type BatchCurator struct {
	model     ReadinessModel
	batchSize int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBatchCurator(m ReadinessModel, batchSize int) *BatchCurator {
	return &BatchCurator{
		model:     m,
		batchSize: batchSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// newBatchCuratorWithRand 测试用，注入确定性随机源
func newBatchCuratorWithRand(m ReadinessModel, batchSize int, rng *rand.Rand) *BatchCurator {
	return &BatchCurator{model: m, batchSize: batchSize, rng: rng}
}

// Curate 产出一批恰好 batchSize 道题
// answered 为学习者答过的题目 ID 集合，answeredInSubject 为该科目累计提交数。
// 过滤后可用题不足 batchSize 时返回 InsufficientQuestionsError。
func (c *BatchCurator) Curate(
	p *model.UserPerformanceProfile,
	subjectID uint,
	tag string,
	pool []model.Question,
	answered map[uint]bool,
	answeredInSubject uint,
) ([]model.Question, error) {
	filtered := filterPool(pool, subjectID, tag)

	if len(filtered) < c.batchSize {
		return nil, &util.InsufficientQuestionsError{Found: len(filtered)}
	}

	// 优先出没做过的题；不够一批时退回整个过滤池，允许重复练习
	working := make([]model.Question, 0, len(filtered))
	for _, q := range filtered {
		if !answered[q.ID] {
			working = append(working, q)
		}
	}
	if len(working) < c.batchSize {
		working = filtered
	}

	scored := c.scorePool(p, working)

	var selected []model.Question
	if answeredInSubject < experiencedLearnerMin {
		selected = c.selectStratified(scored)
		monitoring.BatchCuratedCounter.WithLabelValues("new").Inc()
	} else {
		selected = c.selectWeakestFirst(scored)
		monitoring.BatchCuratedCounter.WithLabelValues("experienced").Inc()
	}

	// 兜底修整：无论分支怎么取，最终必须恰好一批
	selected = c.repair(selected, scored)

	c.shuffle(selected)
	return selected, nil
}

func filterPool(pool []model.Question, subjectID uint, tag string) []model.Question {
	needle := strings.ToLower(tag)
	filtered := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if q.SubjectID != subjectID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(q.Tag), needle) {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

// scorePool 全量过模型打分，低分即弱点；单题预测失败按中性 0.5 计
func (c *BatchCurator) scorePool(p *model.UserPerformanceProfile, pool []model.Question) []scoredQuestion {
	scored := make([]scoredQuestion, 0, len(pool))
	for _, q := range pool {
		qc := model.QuestionContext{
			SubjectID:  q.SubjectID,
			TopicID:    q.TopicID,
			SubTopicID: q.SubTopicID,
			Difficulty: q.Difficulty,
		}
		score, err := c.model.Predict(p, qc)
		if err != nil {
			logger.Log.Warn("Question scoring failed, using neutral score",
				zap.Uint("questionId", q.ID), zap.Error(err))
			score = neutralAccuracy
		}
		scored = append(scored, scoredQuestion{question: q, score: score})
	}
	return scored
}

// selectStratified 新学习者分支 难度三档各取 10 道，随机均匀
func (c *BatchCurator) selectStratified(scored []scoredQuestion) []model.Question {
	var easy, medium, hard []model.Question
	for _, s := range scored {
		switch {
		case s.question.Difficulty <= model.DifficultyEasyMax:
			easy = append(easy, s.question)
		case s.question.Difficulty <= model.DifficultyMediumMax:
			medium = append(medium, s.question)
		default:
			hard = append(hard, s.question)
		}
	}

	perBucket := c.batchSize / 3
	c.shuffle(easy)
	c.shuffle(medium)
	c.shuffle(hard)

	selected := make([]model.Question, 0, c.batchSize)
	selected = append(selected, take(easy, perBucket)...)
	selected = append(selected, take(medium, perBucket)...)
	selected = append(selected, take(hard, perBucket)...)
	return selected
}

// selectWeakestFirst 经验分支 按就绪度升序取最弱的 70%，剩余名额随机补足多样性
func (c *BatchCurator) selectWeakestFirst(scored []scoredQuestion) []model.Question {
	ordered := append([]scoredQuestion(nil), scored...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].score < ordered[j].score
	})

	weakCount := int(float64(c.batchSize) * weakSelectionRatio)
	if weakCount > len(ordered) {
		weakCount = len(ordered)
	}

	selected := make([]model.Question, 0, c.batchSize)
	for _, s := range ordered[:weakCount] {
		selected = append(selected, s.question)
	}

	rest := make([]model.Question, 0, len(ordered)-weakCount)
	for _, s := range ordered[weakCount:] {
		rest = append(rest, s.question)
	}
	c.shuffle(rest)
	selected = append(selected, take(rest, c.batchSize-len(selected))...)
	return selected
}

// repair 数量修整 超了截断，缺了从剩余池随机补，不出重复题
func (c *BatchCurator) repair(selected []model.Question, scored []scoredQuestion) []model.Question {
	if len(selected) > c.batchSize {
		return selected[:c.batchSize]
	}
	if len(selected) == c.batchSize {
		return selected
	}

	chosen := make(map[uint]bool, len(selected))
	for _, q := range selected {
		chosen[q.ID] = true
	}

	remaining := make([]model.Question, 0, len(scored))
	for _, s := range scored {
		if !chosen[s.question.ID] {
			remaining = append(remaining, s.question)
		}
	}
	c.shuffle(remaining)
	return append(selected, take(remaining, c.batchSize-len(selected))...)
}

func (c *BatchCurator) shuffle(qs []model.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

func take(qs []model.Question, n int) []model.Question {
	if n < 0 {
		n = 0
	}
	if n > len(qs) {
		n = len(qs)
	}
	return qs[:n]
}
