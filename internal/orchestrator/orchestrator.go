package orchestrator

import (
	"atelier/internal/entity"
	"atelier/internal/genclient"
	"atelier/internal/store"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Generator 抽象生成客户端，便于替换端点配置和测试。
type Generator interface {
	GenerateImagesStream(ctx context.Context, req entity.GenerateRequest, onProgress genclient.ProgressFunc) error
}

// ErrGenerationInFlight 表示已有生成批次在执行，重入调用被拒绝。
var ErrGenerationInFlight = errors.New("a generation is already in flight")

// ErrNoGenerator 表示尚未配置任何生成端点。
var ErrNoGenerator = errors.New("no generation endpoint configured")

// Orchestrator 是生成编排核心：维护内存中的历史列表（最新在前），
// 驱动生成客户端，把每个结果独立地合并进内存和持久化存储。
// 它是生成记录状态的唯一写入方；界面只读取和订阅。
type Orchestrator struct {
	mu            sync.Mutex
	st            store.Store // 可为 nil，此时只有内存状态
	generator     Generator
	records       []*entity.GenerationRecord
	generating    bool
	stopRequested bool
	currentGroup  string

	bus *eventBus

	// 落库按记录串行：persistPending 保存待写出的最新快照，
	// persistBusy 标记该记录已有写出协程在跑。
	persistMu      sync.Mutex
	persistPending map[string]entity.GenerationRecord
	persistBusy    map[string]bool

	persistTimeout time.Duration
}

// New 创建编排器。store 和 generator 都允许为 nil（未配置时）。
func New(st store.Store, generator Generator) *Orchestrator {
	return &Orchestrator{
		st:             st,
		generator:      generator,
		bus:            newEventBus(),
		persistPending: make(map[string]entity.GenerationRecord),
		persistBusy:    make(map[string]bool),
		persistTimeout: 5 * time.Second,
	}
}

// SetGenerator 切换生成客户端（端点配置变更时）。
func (o *Orchestrator) SetGenerator(generator Generator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generator = generator
}

// Subscribe 注册一个事件订阅者。
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.bus.Subscribe()
}

// IsGenerating 报告是否有批次在执行。
func (o *Orchestrator) IsGenerating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generating
}

// Records 返回历史列表快照，最新在前。
func (o *Orchestrator) Records() []entity.GenerationRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]entity.GenerationRecord, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	return out
}

// LoadHistory 从持久化存储重建内存历史，按时间倒序。启动时调用一次。
func (o *Orchestrator) LoadHistory(ctx context.Context) error {
	if o.st == nil {
		return nil
	}

	stored, err := o.st.ListImages(ctx)
	if err != nil {
		return err
	}

	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Timestamp.After(stored[j].Timestamp)
	})

	records := make([]*entity.GenerationRecord, 0, len(stored))
	for i := range stored {
		rec := stored[i]
		records = append(records, &rec)
	}

	o.mu.Lock()
	o.records = records
	o.mu.Unlock()
	return nil
}

// Start 开启一个生成批次：立即创建 N 条占位记录并返回组 ID，
// 生成在后台进行。已有批次在执行时返回 ErrGenerationInFlight。
func (o *Orchestrator) Start(req entity.GenerateRequest) (string, error) {
	req.Normalize()
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		return "", ErrGenerationInFlight
	}
	if o.generator == nil {
		o.mu.Unlock()
		return "", ErrNoGenerator
	}
	generator := o.generator

	groupID := uuid.NewString()
	now := time.Now()
	batch := make([]*entity.GenerationRecord, 0, req.MaxImages)
	for i := 1; i <= req.MaxImages; i++ {
		batch = append(batch, &entity.GenerationRecord{
			ID:          entity.RecordID(groupID, i),
			GroupID:     groupID,
			Prompt:      req.Prompt,
			AspectRatio: req.AspectRatio,
			Size:        req.Size,
			Model:       req.Model,
			Status:      entity.StatusLoading,
			Timestamp:   now,
		})
	}

	// 新批次整体置顶，组内保持索引顺序
	o.records = append(batch, o.records...)
	o.generating = true
	o.stopRequested = false
	o.currentGroup = groupID
	o.mu.Unlock()

	// 占位记录异步落库；落库失败只记日志，不阻塞生成
	for _, rec := range batch {
		o.persistAsync(*rec)
	}
	o.bus.publish(Event{Type: EventHistoryChanged, GroupID: groupID})

	go o.run(generator, req, groupID)

	return groupID, nil
}

// Stop 以协作方式请求取消。已经在途的远程调用不会被强行中断，
// 其结果照常合并（记录一旦终态则不再被覆盖）。
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.generating {
		return
	}
	o.stopRequested = true
}

func (o *Orchestrator) run(generator Generator, req entity.GenerateRequest, groupID string) {
	defer func() {
		o.mu.Lock()
		o.generating = false
		o.currentGroup = ""
		o.mu.Unlock()
		o.bus.publish(Event{Type: EventGenerationCompleted, GroupID: groupID})
	}()

	// 取消标志在发起请求前检查一次
	o.mu.Lock()
	stopped := o.stopRequested
	o.mu.Unlock()
	if stopped {
		o.failGroup(groupID, entity.StoppedMessage)
		return
	}

	// 刻意不设硬超时：挂死的请求让占位记录一直 loading，
	// 由用户手动删除恢复
	err := generator.GenerateImagesStream(context.Background(), req, func(current, total int, result genclient.ImageResult) {
		o.reconcile(groupID, current, result)
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"group_id": groupID,
			"kind":     genclient.Classify(err),
		}).Error("generation request failed")
		o.failGroup(groupID, err.Error())
		return
	}

	// 取消后未收到结果的占位记录统一标记 stopped
	o.mu.Lock()
	stopped = o.stopRequested
	o.mu.Unlock()
	if stopped {
		o.failGroup(groupID, entity.StoppedMessage)
	}
}

// reconcile 将一个进度回调合并进内存和存储。只有仍处于 loading 的
// 记录才会被改写；终态记录对迟到/重复回调保持不变。
func (o *Orchestrator) reconcile(groupID string, current int, result genclient.ImageResult) {
	id := entity.RecordID(groupID, current)

	o.mu.Lock()
	rec := o.findLocked(id)
	if rec == nil {
		o.mu.Unlock()
		logrus.WithField("record_id", id).Warn("progress callback for unknown record")
		return
	}
	if rec.IsTerminal() {
		o.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"record_id": id,
			"status":    rec.Status,
		}).Debug("ignoring callback for terminal record")
		return
	}

	if result.Err != nil {
		rec.Status = entity.StatusError
		rec.Error = result.Err.Error()
	} else {
		rec.Status = entity.StatusSuccess
		rec.ImageURL = result.Image
		rec.Error = ""
	}
	rec.Timestamp = time.Now()
	snapshot := *rec
	o.mu.Unlock()

	o.persistAsync(snapshot)
	o.bus.publish(Event{Type: EventRecordUpdated, GroupID: groupID, RecordID: id})
}

// failGroup 将组内所有仍在 loading 的记录标记为 error。
func (o *Orchestrator) failGroup(groupID, message string) {
	o.mu.Lock()
	var failed []entity.GenerationRecord
	for _, rec := range o.records {
		if rec.GroupID != groupID || rec.IsTerminal() {
			continue
		}
		rec.Status = entity.StatusError
		rec.Error = message
		rec.Timestamp = time.Now()
		failed = append(failed, *rec)
	}
	o.mu.Unlock()

	for i := range failed {
		o.persistAsync(failed[i])
		o.bus.publish(Event{Type: EventRecordUpdated, GroupID: groupID, RecordID: failed[i].ID})
	}
}

func (o *Orchestrator) findLocked(id string) *entity.GenerationRecord {
	for _, rec := range o.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// persistAsync 异步落库。同一记录的写出串行化：后下发的快照覆盖
// 尚未写出的旧快照，存储中最终落定的一定是最新状态，占位写不会
// 迟到盖掉终态写。存储失败只记日志，生成可见状态不依赖落库成功。
func (o *Orchestrator) persistAsync(record entity.GenerationRecord) {
	if o.st == nil {
		return
	}

	o.persistMu.Lock()
	o.persistPending[record.ID] = record
	if o.persistBusy[record.ID] {
		o.persistMu.Unlock()
		return
	}
	o.persistBusy[record.ID] = true
	o.persistMu.Unlock()

	go o.flushPersist(record.ID)
}

// flushPersist 逐个写出某条记录的待落库快照，直到队列清空。
func (o *Orchestrator) flushPersist(id string) {
	for {
		o.persistMu.Lock()
		record, ok := o.persistPending[id]
		if !ok {
			delete(o.persistBusy, id)
			o.persistMu.Unlock()
			return
		}
		delete(o.persistPending, id)
		o.persistMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), o.persistTimeout)
		err := o.st.PutImage(ctx, &record)
		cancel()
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"record_id": record.ID,
				"group_id":  record.GroupID,
			}).Error("failed to persist generation record")
		}
	}
}

// DeleteRecord 同时删除存储与内存中的记录。存储删除完成之前，
// 该记录不视为已删除。
func (o *Orchestrator) DeleteRecord(ctx context.Context, id string) error {
	if o.st != nil {
		if err := o.st.DeleteImage(ctx, id); err != nil {
			return err
		}
	}

	o.mu.Lock()
	kept := o.records[:0]
	for _, rec := range o.records {
		if rec.ID == id {
			continue
		}
		kept = append(kept, rec)
	}
	o.records = kept
	o.mu.Unlock()

	o.bus.publish(Event{Type: EventHistoryChanged, RecordID: id})
	return nil
}

// DeleteGroup 删除一个批次的全部记录，不影响其它批次。
func (o *Orchestrator) DeleteGroup(ctx context.Context, groupID string) error {
	if o.st != nil {
		if err := o.st.DeleteImageGroup(ctx, groupID); err != nil {
			return err
		}
	}

	o.mu.Lock()
	kept := o.records[:0]
	for _, rec := range o.records {
		if rec.GroupID == groupID {
			continue
		}
		kept = append(kept, rec)
	}
	o.records = kept
	o.mu.Unlock()

	o.bus.publish(Event{Type: EventHistoryChanged, GroupID: groupID})
	return nil
}

// ClearHistory 清空全部历史。
func (o *Orchestrator) ClearHistory(ctx context.Context) error {
	if o.st != nil {
		if err := o.st.ClearImages(ctx); err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.records = nil
	o.mu.Unlock()

	o.bus.publish(Event{Type: EventHistoryChanged})
	return nil
}

// GroupRecords 返回指定批次的记录快照。
func (o *Orchestrator) GroupRecords(groupID string) []entity.GenerationRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []entity.GenerationRecord
	for _, rec := range o.records {
		if rec.GroupID == groupID {
			out = append(out, *rec)
		}
	}
	return out
}
