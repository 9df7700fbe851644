package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewSnapshotRepository(SnapshotRepositoryParams{
		Conn:   NewConnectionFromDB(sqlDB),
		Clock:  func() time.Time { return fixedNow },
		Logger: zerolog.Nop(),
	}), mock
}

func sampleAuction() (auction.Auction, []bid.Bid) {
	current := decimal.NewFromInt(150)
	a := auction.Auction{
		ID:               "a1",
		Title:            "Lamp",
		BasePrice:        decimal.NewFromInt(100),
		MinAuctionAmount: decimal.NewFromInt(100),
		CurrentBid:       &current,
		Status:           auction.StatusActive,
	}
	bids := []bid.Bid{
		{ID: "b1", AuctionID: "a1", Bidder: shared.Party{ID: "u1"}, Amount: decimal.NewFromInt(120), IsOutbid: true},
		{ID: "b2", AuctionID: "a1", Bidder: shared.Party{ID: "u2"}, Amount: decimal.NewFromInt(150), IsWinning: true},
	}
	return a, bids
}

func TestSnapshotRepository_Record(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	a, bids := sampleAuction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO auction_snapshots").
		WithArgs(sqlmock.AnyArg(), "a1", "active", "150", 2, "b2", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bid_snapshots").
		WithArgs(sqlmock.AnyArg(), "b1", "u1", "120", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bid_snapshots").
		WithArgs(sqlmock.AnyArg(), "b2", "u2", "150", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Record(context.Background(), a, bids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_RecordRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	a, bids := sampleAuction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO auction_snapshots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bid_snapshots").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), a, bids)
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_Latest(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	a, _ := sampleAuction()
	payload, err := json.Marshal(a)
	require.NoError(t, err)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "auction_id", "status", "current_bid", "bid_count", "winning_bid_id", "payload", "recorded_at"}).
		AddRow(id.String(), "a1", "active", "150", 2, "b2", payload, fixedNow)
	mock.ExpectQuery("SELECT (.+) FROM auction_snapshots").WithArgs("a1").WillReturnRows(rows)

	s, err := repo.Latest(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, id, s.ID)
	require.Equal(t, auction.StatusActive, s.Status)
	require.True(t, s.CurrentBid.Equal(decimal.NewFromInt(150)))
	require.Equal(t, "b2", s.WinningBidID)
	require.Equal(t, "Lamp", s.Auction.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_LatestMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM auction_snapshots").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Latest(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSnapshotRepository_Migrate(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS auction_snapshots").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
