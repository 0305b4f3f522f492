package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	auditBatchSize     = 100
	auditFlushInterval = 100 * time.Millisecond
	auditWriteTimeout  = 5 * time.Second
)

// AuditSink writes batches of audit entries
type AuditSink interface {
	InsertBatch(ctx context.Context, entries []models.AuditLog) error
}

// MongoAuditSink writes audit entries to a MongoDB collection
type MongoAuditSink struct {
	collection *mongo.Collection
}

// NewMongoAuditSink creates a sink for the audit collection
func NewMongoAuditSink(collection *mongo.Collection) *MongoAuditSink {
	return &MongoAuditSink{collection: collection}
}

// InsertBatch bulk inserts entries, unordered
func (s *MongoAuditSink) InsertBatch(ctx context.Context, entries []models.AuditLog) error {
	operations := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		operations = append(operations, mongo.NewInsertOneModel().SetDocument(entry))
	}
	if _, err := s.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to insert audit batch: %w", err)
	}
	return nil
}

// AuditWorker writes audit entries asynchronously in batches
type AuditWorker struct {
	sink      AuditSink
	auditChan chan models.AuditLog
	workers   int
	wg        sync.WaitGroup
	mu        sync.RWMutex
	stopped   bool
	now       func() time.Time
	logger    *logging.SafeLogger
}

// NewAuditWorker creates and starts an audit worker pool
func NewAuditWorker(sink AuditSink, workers, bufferSize int, logger *logging.SafeLogger) *AuditWorker {
	aw := &AuditWorker{
		sink:      sink,
		auditChan: make(chan models.AuditLog, bufferSize),
		workers:   workers,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "audit")),
	}
	aw.start()
	return aw
}

func (aw *AuditWorker) start() {
	aw.wg.Add(aw.workers)
	for i := 0; i < aw.workers; i++ {
		go func() {
			defer aw.wg.Done()
			aw.processAuditLogs()
		}()
	}

	aw.logger.Info("audit worker started",
		zap.Int("workers", aw.workers),
		zap.Int("buffer_size", cap(aw.auditChan)))
}

func (aw *AuditWorker) processAuditLogs() {
	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	batch := make([]models.AuditLog, 0, auditBatchSize)
	for {
		select {
		case entry, ok := <-aw.auditChan:
			if !ok {
				aw.flushBatch(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				aw.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				aw.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (aw *AuditWorker) flushBatch(batch []models.AuditLog) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := aw.sink.InsertBatch(ctx, batch); err != nil {
		aw.logger.Error("failed to insert audit log batch",
			zap.Error(err),
			zap.Int("batch_size", len(batch)))
		return
	}
	aw.logger.Debug("audit log batch inserted", zap.Int("batch_size", len(batch)))
}

// Log queues an entry without blocking. A nil worker ignores the entry, and
// a full buffer drops it.
func (aw *AuditWorker) Log(entry models.AuditLog) {
	if aw == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = aw.now().UTC()
	}

	// The read lock keeps Stop from closing the channel during the send.
	aw.mu.RLock()
	defer aw.mu.RUnlock()
	if aw.stopped {
		observability.AuditEventsDropped.Inc()
		return
	}

	select {
	case aw.auditChan <- entry:
	default:
		observability.AuditEventsDropped.Inc()
		aw.logger.Warn("audit buffer full, dropping event",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource))
	}
}

// Stop drains queued entries and waits for the workers to exit. Entries
// logged afterwards are dropped.
func (aw *AuditWorker) Stop() {
	if aw == nil {
		return
	}

	aw.mu.Lock()
	if aw.stopped {
		aw.mu.Unlock()
		return
	}
	aw.stopped = true
	close(aw.auditChan)
	aw.mu.Unlock()

	aw.wg.Wait()
}

// Stats returns current audit worker statistics
func (aw *AuditWorker) Stats() map[string]interface{} {
	if aw == nil {
		return map[string]interface{}{"status": "disabled"}
	}
	aw.mu.RLock()
	status := "running"
	if aw.stopped {
		status = "stopped"
	}
	aw.mu.RUnlock()
	return map[string]interface{}{
		"status":          status,
		"workers":         aw.workers,
		"buffer_capacity": cap(aw.auditChan),
		"buffer_usage":    len(aw.auditChan),
	}
}
