package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/fftools/likebot/internal/observability"
	"go.uber.org/zap"
)

// LikeSender is the like-granting collaborator the notifier calls.
type LikeSender interface {
	SendLike(ctx context.Context, uid string) (*LikeResult, error)
}

// ChatTransport delivers completion feedback to the requesting chat.
type ChatTransport interface {
	SendMessage(chatID int64, text string) (messageID int, err error)
	EditMessage(chatID int64, messageID int, text string) error
}

// NotificationJob is one completion to deliver after a successful consume.
type NotificationJob struct {
	Code        string              `json:"code"`
	RequesterID int64               `json:"requester_id"`
	TargetUID   string              `json:"target_uid"`
	ReplyTarget *models.ReplyTarget `json:"reply_target,omitempty"`
	EnqueuedAt  time.Time           `json:"enqueued_at"`
}

// NotifierStats tracks queue behaviour for health checks and diagnostics.
type NotifierStats struct {
	JobsEnqueued  int64         `json:"jobs_enqueued"`
	JobsProcessed int64         `json:"jobs_processed"`
	JobsDropped   int64         `json:"jobs_dropped"`
	AverageLag    time.Duration `json:"average_lag"`
	QueueSize     int           `json:"queue_size"`
	ActiveWorkers int           `json:"active_workers"`
}

// Notifier performs the gated like grant and reports the outcome back to the
// originating chat, detached from the HTTP request that triggered it. Job
// failures are terminal: logged, counted, never propagated.
type Notifier struct {
	queue   chan NotificationJob
	workers int
	likes   LikeSender
	chat    ChatTransport
	timeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	stats NotifierStats

	logger *logging.SafeLogger
}

// NewNotifier creates a notifier and starts its workers.
func NewNotifier(workers, queueSize int, likes LikeSender, chat ChatTransport, logger *logging.SafeLogger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	n := &Notifier{
		queue:   make(chan NotificationJob, queueSize),
		workers: workers,
		likes:   likes,
		chat:    chat,
		timeout: 30 * time.Second,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.Named("notifier"),
	}

	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker(i)
	}

	return n
}

// Enqueue hands a job to the worker pool without blocking. A full queue drops
// the job: the consume transition is already durable, so the worst case is a
// missing chat notification, recoverable by operator inspection.
func (n *Notifier) Enqueue(job NotificationJob) error {
	job.EnqueuedAt = time.Now()

	n.mu.Lock()
	n.stats.JobsEnqueued++
	n.mu.Unlock()

	select {
	case n.queue <- job:
		observability.NotifierQueueDepth.Set(float64(len(n.queue)))
		return nil
	default:
		n.mu.Lock()
		n.stats.JobsDropped++
		n.mu.Unlock()
		n.logger.Error("notifier queue full, dropping job",
			zap.String("code", observability.MaskCode(job.Code)),
			zap.Int64("requester_id", job.RequesterID))
		return fmt.Errorf("notifier queue is full")
	}
}

// worker processes jobs until the notifier is stopped.
func (n *Notifier) worker(id int) {
	defer n.wg.Done()

	for job := range n.queue {
		n.process(job, id)
		observability.NotifierQueueDepth.Set(float64(len(n.queue)))
	}
}

// process runs one job to completion: like grant, summary rendering,
// delivery. Each stage's failure degrades rather than aborts.
func (n *Notifier) process(job NotificationJob, workerID int) {
	logger := n.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("code", observability.MaskCode(job.Code)),
		zap.Int64("requester_id", job.RequesterID),
		zap.String("target_uid", job.TargetUID),
	)

	ctx, cancel := context.WithTimeout(n.ctx, n.timeout)
	defer cancel()

	var text string
	result, err := n.likes.SendLike(ctx, job.TargetUID)
	if err != nil {
		logger.Error("like API call failed", zap.Error(err))
		text = likeErrorText
	} else {
		text = FormatLikeSummary(job.TargetUID, result)
	}

	n.deliver(job, text, logger)

	n.mu.Lock()
	n.stats.JobsProcessed++
	lag := time.Since(job.EnqueuedAt)
	if n.stats.AverageLag == 0 {
		n.stats.AverageLag = lag
	} else {
		n.stats.AverageLag = (n.stats.AverageLag + lag) / 2
	}
	n.mu.Unlock()
}

// deliver edits the original prompt message when possible and falls back to a
// direct message. Delivery failure is logged only; the delivery channel
// itself is the failure point, so there is nothing further to tell the user.
func (n *Notifier) deliver(job NotificationJob, text string, logger *logging.SafeLogger) {
	if job.ReplyTarget.CanEdit() {
		err := n.chat.EditMessage(job.ReplyTarget.ChatID, job.ReplyTarget.MessageID, text)
		if err == nil {
			observability.NotificationDeliveries.WithLabelValues("edit", "ok").Inc()
			logger.Info("completion delivered", zap.String("method", "edit"))
			return
		}
		observability.NotificationDeliveries.WithLabelValues("edit", "failed").Inc()
		logger.Warn("failed to edit prompt message, sending new message", zap.Error(err))
	}

	if _, err := n.chat.SendMessage(job.RequesterID, text); err != nil {
		observability.NotificationDeliveries.WithLabelValues("send", "failed").Inc()
		logger.Error("failed to deliver completion message", zap.Error(err))
		return
	}
	observability.NotificationDeliveries.WithLabelValues("send", "ok").Inc()
	logger.Info("completion delivered", zap.String("method", "send"))
}

// Stats returns a snapshot of the queue statistics.
func (n *Notifier) Stats() NotifierStats {
	n.mu.RLock()
	defer n.mu.RUnlock()

	stats := n.stats
	stats.QueueSize = len(n.queue)
	stats.ActiveWorkers = n.workers
	return stats
}

// IsHealthy reports whether the queue is keeping up.
func (n *Notifier) IsHealthy() bool {
	stats := n.Stats()
	return stats.QueueSize < cap(n.queue)
}

// Stop closes the queue, waits for the workers to finish the remaining jobs,
// then releases the worker context. Enqueue must not be called after Stop.
func (n *Notifier) Stop() {
	close(n.queue)
	n.wg.Wait()
	n.cancel()
}

const (
	likeErrorText   = "❌ Error during like process."
	likeFailureText = "❌ Failed to send likes. Please try again later."
)

// FormatLikeSummary renders the chat summary for a like API result.
func FormatLikeSummary(uid string, result *LikeResult) string {
	switch result.Status {
	case LikeStatusGranted:
		return fmt.Sprintf(
			"✅ *Like Sent Successfully!*\n\n"+
				"👤 Player: `%s`\n"+
				"📇 UID: `%s`\n"+
				"👍 Likes Before: `%d`\n"+
				"👍 Likes After: `%d`\n"+
				"🚀 Likes Given: `%d`",
			result.PlayerNickname, result.UID, result.LikesBefore, result.LikesAfter, result.LikesGiven)
	case LikeStatusMaxed:
		return fmt.Sprintf(
			"❌️ *Maxed Likes Reached for UID `%s`*\n\n"+
				"👤 Player: `%s`\n"+
				"👍 Total Likes: `%d`",
			uid, result.PlayerNickname, result.LikesAfter)
	default:
		return likeFailureText
	}
}
