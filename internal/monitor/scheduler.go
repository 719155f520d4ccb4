package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/collector"
	"github.com/CyberNilsen/CyberNetMon/internal/model"
	"github.com/jpillora/backoff"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

const (
	// DefaultInterval 默认轮询间隔
	DefaultInterval = 2 * time.Second
	// DefaultDeliveryBuffer 投递通道的默认缓冲大小
	DefaultDeliveryBuffer = 16
	// stopGrace Stop 等待在途周期退出的时限，超时后循环在下一个检查点自行退出
	stopGrace = time.Second
)

// Source 连接快照来源
type Source interface {
	Snapshot(ctx context.Context) ([]model.RawConnection, error)
}

// RecordEnricher 快照富化
type RecordEnricher interface {
	EnrichAll(ctx context.Context, raws []model.RawConnection) []model.ConnectionRecord
}

// Scheduler 监控调度器，负责周期性 快照→富化→投递 循环的启停。
// 同一时刻至多一个后台轮询任务；手动刷新在调用方的执行上下文里
// 独立执行一个周期，与后台任务互不阻塞。
type Scheduler struct {
	logger   *zap.Logger
	source   Source
	enricher RecordEnricher
	out      chan []model.ConnectionRecord

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler 创建调度器。buffer 为投递通道缓冲大小，写满时丢弃最旧快照。
func NewScheduler(logger *zap.Logger, source Source, enricher RecordEnricher, buffer int) *Scheduler {
	if buffer <= 0 {
		buffer = DefaultDeliveryBuffer
	}
	return &Scheduler{
		logger:   logger,
		source:   source,
		enricher: enricher,
		out:      make(chan []model.ConnectionRecord, buffer),
	}
}

// Records 快照投递通道。消费方按自己的节奏读取，
// 通道写满时调度器丢弃最旧一帧，永远不会阻塞在慢消费者上。
func (s *Scheduler) Records() <-chan []model.ConnectionRecord {
	return s.out
}

// IsRunning 后台轮询是否在运行
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start 进入运行态并启动后台轮询。已在运行时为空操作，不会产生第二个任务。
func (s *Scheduler) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("开始监控", zap.Duration("interval", interval))
	go func() {
		defer close(done)
		s.loop(ctx, interval)
	}()
}

// Stop 退出运行态，最多等待 stopGrace 让在途周期观察到取消信号。
// 未在运行时为空操作。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopGrace):
		s.logger.Debug("等待轮询任务退出超时，任务将在下一个检查点自行结束")
	}
	s.logger.Info("监控已停止")
}

// Refresh 在调用方的执行上下文中立即执行一个完整周期并投递结果。
// 可与后台轮询并发运行，二者共享地理缓存但互不阻塞。
func (s *Scheduler) Refresh(ctx context.Context) ([]model.ConnectionRecord, error) {
	raws, err := s.source.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, collector.ErrPermissionDenied) {
			s.logger.Warn("权限不足，无法枚举连接，本次按空快照处理")
			s.deliver(nil)
		}
		return nil, err
	}

	records := s.enricher.EnrichAll(ctx, raws)
	s.deliver(records)
	return records, nil
}

// loop 后台轮询主循环。取消信号只在周期边界检查，
// 在途的网络查询不会被中断，其结果在返回后照常写入缓存并投递。
func (s *Scheduler) loop(ctx context.Context, interval time.Duration) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		var cycleErr error
		if r := panics.Try(func() { cycleErr = s.cycle(ctx) }); r != nil {
			s.logger.Error("轮询周期异常", zap.Any("panic", r.Value))
		}

		wait := interval
		if cycleErr != nil {
			wait = b.Duration()
			s.logger.Warn("本轮快照失败", zap.Error(cycleErr), zap.Duration("retryAfter", wait))
		} else {
			b.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// cycle 执行一次 快照→富化→投递。权限不足不算失败：
// 投递空快照并继续监控。
func (s *Scheduler) cycle(ctx context.Context) error {
	raws, err := s.source.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, collector.ErrPermissionDenied) {
			s.logger.Warn("权限不足，无法枚举连接，本轮按空快照处理")
			s.deliver(nil)
			return nil
		}
		return err
	}

	s.deliver(s.enricher.EnrichAll(ctx, raws))
	return nil
}

// deliver 投递快照。通道已满时丢弃最旧一帧再重试，保证不阻塞。
func (s *Scheduler) deliver(records []model.ConnectionRecord) {
	for {
		select {
		case s.out <- records:
			return
		default:
			select {
			case <-s.out:
			default:
			}
		}
	}
}
