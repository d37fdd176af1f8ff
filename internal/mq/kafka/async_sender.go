package kafka

import (
	"context"
	"sync"
	"time"

	"go-authlog/internal/logging"
	"go-authlog/internal/metrics"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AsyncMessage struct {
	Ctx       context.Context
	Key       []byte
	Value     []byte
	Headers   map[string]string
	EnqueueAt time.Time
}

type AsyncConfig struct {
	QueueSize int
	Workers   int
	MaxBatch  int
	MaxWait   time.Duration
}

// AsyncSender 有界异步发送 + 批量聚合：多 worker 从 channel 取消息，达到 MaxBatch 或
// 等待超过 MaxWait 时写 Kafka。队列满直接丢弃，批量失败降级逐条重试。
type AsyncSender struct {
	producer *Producer
	logger   *logging.Logger
	queue    chan AsyncMessage
	cfg      AsyncConfig
	wg       sync.WaitGroup
	stopCh   chan struct{}
	once     sync.Once
}

// NewAsyncSender producer 为 nil 时返回 nil
func NewAsyncSender(p *Producer, l *logging.Logger, cfg AsyncConfig) *AsyncSender {
	if p == nil {
		return nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 50
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 20 * time.Millisecond
	}
	return &AsyncSender{
		producer: p,
		logger:   l,
		queue:    make(chan AsyncMessage, cfg.QueueSize),
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

func (s *AsyncSender) Start() {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.run()
	}
}

func (s *AsyncSender) run() {
	defer s.wg.Done()
	batch := make([]AsyncMessage, 0, s.cfg.MaxBatch)
	timer := time.NewTimer(s.cfg.MaxWait)
	timer.Stop()
	var timerCh <-chan time.Time
	flush := func(reason string) {
		if len(batch) > 0 {
			s.flush(batch, reason)
			batch = batch[:0]
		}
		if timerCh != nil {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timerCh = nil
		}
	}
	for {
		select {
		case <-s.stopCh:
			// 尽量发完队列中剩余消息
			for {
				select {
				case m := <-s.queue:
					metrics.OpLogQueueDepth.Dec()
					batch = append(batch, m)
					if len(batch) >= s.cfg.MaxBatch {
						flush("shutdown")
					}
				default:
					flush("shutdown")
					return
				}
			}
		case m := <-s.queue:
			metrics.OpLogQueueDepth.Dec()
			batch = append(batch, m)
			if len(batch) == 1 {
				timer.Reset(s.cfg.MaxWait)
				timerCh = timer.C
			}
			if len(batch) >= s.cfg.MaxBatch {
				flush("size")
			}
		case <-timerCh:
			timerCh = nil
			flush("timeout")
		}
	}
}

func (s *AsyncSender) flush(batch []AsyncMessage, reason string) {
	start := time.Now()
	msgs := make([]kafkaGo.Message, 0, len(batch))
	spans := make([]trace.Span, 0, len(batch))
	for _, m := range batch {
		ctx, span := s.producer.startSpan(m.Ctx)
		hs := make([]kafkaGo.Header, 0, len(m.Headers))
		for k, v := range m.Headers {
			hs = append(hs, kafkaGo.Header{Key: k, Value: []byte(v)})
		}
		hs = s.producer.injectHeaders(ctx, hs)
		msgs = append(msgs, kafkaGo.Message{Key: m.Key, Value: m.Value, Time: m.EnqueueAt, Headers: hs})
		spans = append(spans, span)
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err := s.producer.Writer.WriteMessages(writeCtx, msgs...)
	cancel()
	for _, sp := range spans {
		if err != nil {
			sp.SetStatus(codes.Error, err.Error())
			sp.RecordError(err)
		}
		sp.End()
	}
	if err != nil {
		metrics.OpLogSendErrors.Add(float64(len(batch)))
		s.logger.Warn("oplog_batch_send_failed", zap.Int("size", len(batch)), zap.Error(err))
		// 逐条回退（不再创建新的 span，避免重复）
		for _, m := range batch {
			if err := s.producer.SendWithHeaders(m.Ctx, m.Key, m.Value, m.Headers); err != nil {
				s.logger.Warn("oplog_send_failed", zap.Error(err))
			}
		}
	}
	metrics.OpLogBatchFlush.WithLabelValues(reason).Inc()
	metrics.OpLogBatchSize.Observe(float64(len(batch)))
	metrics.OpLogSendDuration.Observe(time.Since(start).Seconds())
}

// Publish 非阻塞放入，满则丢弃；ctx 仅用于关联 trace，不随请求结束而取消
func (s *AsyncSender) Publish(ctx context.Context, key, value []byte, headers map[string]string) {
	m := AsyncMessage{Ctx: context.WithoutCancel(ctx), Key: key, Value: value, Headers: headers, EnqueueAt: time.Now()}
	select {
	case <-s.stopCh:
		metrics.OpLogEnqueue.WithLabelValues("closed").Inc()
		return
	default:
	}
	select {
	case s.queue <- m:
		metrics.OpLogEnqueue.WithLabelValues("ok").Inc()
		metrics.OpLogQueueDepth.Inc()
	default:
		metrics.OpLogEnqueue.WithLabelValues("dropped").Inc()
	}
}

// Close 停止 worker，退出前发完已入队消息
func (s *AsyncSender) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.stopCh) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
