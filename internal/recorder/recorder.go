package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bidhaus/livefeed/internal/config"
	"github.com/bidhaus/livefeed/internal/event"
	"github.com/bidhaus/livefeed/internal/subscription"
)

// Feed is the slice of the connection manager the recorder needs.
type Feed interface {
	OnAnyBidUpdate(event.BidUpdateHandler) *subscription.Registration
}

// Metrics tracks recorder activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// bidRow is a bid_events table row.
type bidRow struct {
	ID         uuid.UUID
	AuctionID  string
	Amount     float64
	BidCount   int
	BidderID   string
	BidderName string
	ReceivedAt int64 // microseconds since epoch
}

// BidRecorder captures every bid update from the live feed into the
// bid_events table. Rows are batched and flushed on size or interval.
// Duplicate deliveries after a reconnect are absorbed by the
// (auction_id, bid_count) conflict target.
type BidRecorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	feed Feed
	reg  *subscription.Registration

	db *pgxpool.Pool

	batch       []bidRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewBidRecorder creates a new BidRecorder.
func NewBidRecorder(cfg config.RecorderConfig, feed Feed, db *pgxpool.Pool, logger *slog.Logger) *BidRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &BidRecorder{
		cfg:    cfg,
		feed:   feed,
		db:     db,
		logger: logger,
		batch:  make([]bidRow, 0, cfg.BatchSize),
	}
}

// Start registers the bid handler and begins the flush loop.
func (r *BidRecorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.reg = r.feed.OnAnyBidUpdate(r.handleBid)

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("bid recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop deregisters the handler, drains the flush loop, and writes the final
// batch.
func (r *BidRecorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping bid recorder")

	if r.reg != nil {
		r.reg.Cancel()
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("bid recorder stop timed out")
	}

	r.flush(ctx)
	r.logger.Info("bid recorder stopped")
	return nil
}

// Stats returns current metrics.
func (r *BidRecorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// flushLoop periodically flushes the batch.
func (r *BidRecorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

// handleBid transforms a bid update and adds it to the batch. It runs on the
// feed's dispatch goroutine, so it only appends; inserts happen on the flush
// path.
func (r *BidRecorder) handleBid(upd event.BidUpdate) {
	row := transform(upd)

	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.ctx)
	}
}

// transform converts a live bid update to a bid_events row.
func transform(upd event.BidUpdate) bidRow {
	return bidRow{
		ID:         uuid.New(),
		AuctionID:  upd.AuctionID,
		Amount:     upd.CurrentBid,
		BidCount:   upd.BidCount,
		BidderID:   upd.BidderID,
		BidderName: upd.BidderName,
		ReceivedAt: upd.ReceivedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (r *BidRecorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]bidRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	conflicts, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed bids",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *BidRecorder) batchInsert(ctx context.Context, rows []bidRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO bid_events (id, auction_id, amount, bid_count, bidder_id, bidder_name, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (auction_id, bid_count) DO NOTHING
		`, row.ID, row.AuctionID, row.Amount, row.BidCount, row.BidderID, row.BidderName, row.ReceivedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
