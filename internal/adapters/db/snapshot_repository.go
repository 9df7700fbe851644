package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var _ outbound.SnapshotRecorder = (*SnapshotRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS auction_snapshots (
	id             UUID PRIMARY KEY,
	auction_id     TEXT NOT NULL,
	status         TEXT NOT NULL,
	current_bid    NUMERIC,
	bid_count      INTEGER NOT NULL,
	winning_bid_id TEXT,
	payload        JSONB NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auction_snapshots_auction ON auction_snapshots (auction_id, recorded_at DESC);
CREATE TABLE IF NOT EXISTS bid_snapshots (
	snapshot_id UUID NOT NULL REFERENCES auction_snapshots (id) ON DELETE CASCADE,
	bid_id      TEXT NOT NULL,
	bidder_id   TEXT NOT NULL,
	amount      NUMERIC NOT NULL,
	is_winning  BOOLEAN NOT NULL,
	PRIMARY KEY (snapshot_id, bid_id)
);`

// Snapshot is one archived reconciliation of an auction
type Snapshot struct {
	ID           uuid.UUID
	AuctionID    string
	Status       auction.Status
	CurrentBid   *decimal.Decimal
	BidCount     int
	WinningBidID string
	Auction      auction.Auction
	RecordedAt   time.Time
}

// SnapshotRepository archives what the client saw after each re-fetch
type SnapshotRepository struct {
	conn   *Connection
	clock  func() time.Time
	logger zerolog.Logger
}

type SnapshotRepositoryParams struct {
	Conn   *Connection
	Clock  func() time.Time
	Logger zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(params SnapshotRepositoryParams) *SnapshotRepository {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SnapshotRepository{
		conn:   params.Conn,
		clock:  clock,
		logger: params.Logger.With().Str("component", "snapshot_repository").Logger(),
	}
}

// Migrate creates the archive tables when missing
func (r *SnapshotRepository) Migrate(ctx context.Context) error {
	if _, err := r.conn.GetDB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return nil
}

// Record stores the auction and its bids in one transaction
func (r *SnapshotRepository) Record(ctx context.Context, a auction.Auction, bids []bid.Bid) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode auction snapshot: %w", err)
	}

	var winningID sql.NullString
	if w, ok := bid.Winning(bids); ok {
		winningID = sql.NullString{String: w.ID, Valid: true}
	}
	var currentBid any
	if a.CurrentBid != nil {
		currentBid = a.CurrentBid.String()
	}

	snapshotID := uuid.New()
	err = r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO auction_snapshots (id, auction_id, status, current_bid, bid_count, winning_bid_id, payload, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			snapshotID,
			a.ID,
			string(a.Status),
			currentBid,
			len(bids),
			winningID,
			payload,
			r.clock().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert auction snapshot: %w", err)
		}

		for _, b := range bids {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO bid_snapshots (snapshot_id, bid_id, bidder_id, amount, is_winning)
				VALUES ($1, $2, $3, $4, $5)
			`,
				snapshotID,
				b.ID,
				b.Bidder.ID,
				b.Amount.String(),
				b.IsWinning,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bid snapshot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("auction_id", a.ID).Msg("Failed to record snapshot")
		return err
	}

	r.logger.Debug().Str("auction_id", a.ID).Int("bids", len(bids)).Msg("Snapshot recorded")
	return nil
}

// Latest returns the most recent snapshot of an auction
func (r *SnapshotRepository) Latest(ctx context.Context, auctionID string) (*Snapshot, error) {
	query := `
		SELECT id, auction_id, status, current_bid, bid_count, winning_bid_id, payload, recorded_at
		FROM auction_snapshots
		WHERE auction_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var (
		s          Snapshot
		status     string
		currentBid decimal.NullDecimal
		winningID  sql.NullString
		payload    []byte
	)
	err := r.conn.GetDB().QueryRowContext(ctx, query, auctionID).Scan(
		&s.ID,
		&s.AuctionID,
		&status,
		&currentBid,
		&s.BidCount,
		&winningID,
		&payload,
		&s.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &shared.NotFoundError{Resource: "snapshot", Message: "no snapshot for auction " + auctionID}
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	s.Status = auction.Status(status)
	if currentBid.Valid {
		amount := currentBid.Decimal
		s.CurrentBid = &amount
	}
	s.WinningBidID = winningID.String
	if err := json.Unmarshal(payload, &s.Auction); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	return &s, nil
}
