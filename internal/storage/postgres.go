package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"airdrop-engine/internal/config"
	"airdrop-engine/internal/engine"
)

// Store is the Postgres-backed persistence layer: one singleton platform
// row, a keyed campaign collection (JSONB values), a keyed operator registry
// and the treasury balance row.
type Store struct {
	pool *pgxpool.Pool
}

var _ engine.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS platform (
	singleton      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	admin          TEXT NOT NULL,
	max_batch_size BIGINT NOT NULL,
	fee_per_batch  NUMERIC(78,0) NOT NULL
);
CREATE TABLE IF NOT EXISTS campaigns (
	campaign_id TEXT PRIMARY KEY,
	data        JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS operators (
	account TEXT PRIMARY KEY,
	enabled BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS treasury (
	singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	balance   NUMERIC(78,0) NOT NULL DEFAULT 0
);
CREATE OR REPLACE FUNCTION notify_campaign_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('airdrop_data_change', COALESCE(NEW.campaign_id, OLD.campaign_id));
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS campaigns_notify ON campaigns;
CREATE TRIGGER campaigns_notify
	AFTER INSERT OR UPDATE OR DELETE ON campaigns
	FOR EACH ROW EXECUTE FUNCTION notify_campaign_change();
`

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}

// ListenChannel is the NOTIFY channel the campaigns trigger publishes on.
func (s *Store) ListenChannel() string {
	return "airdrop_data_change"
}

func (s *Store) GetPlatform(ctx context.Context) (*engine.PlatformConfig, error) {
	var (
		admin        string
		maxBatchSize int64
		feePerBatch  string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT admin, max_batch_size, fee_per_batch::text FROM platform`,
	).Scan(&admin, &maxBatchSize, &feePerBatch)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query platform: %w", err)
	}
	fee, err := uint256.FromDecimal(feePerBatch)
	if err != nil {
		return nil, fmt.Errorf("decode fee_per_batch: %w", err)
	}
	return &engine.PlatformConfig{
		Admin:        admin,
		MaxBatchSize: uint64(maxBatchSize),
		FeePerBatch:  fee,
	}, nil
}

func (s *Store) SavePlatform(ctx context.Context, platform *engine.PlatformConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO platform (singleton, admin, max_batch_size, fee_per_batch)
		VALUES (TRUE, $1, $2, $3::numeric)
		ON CONFLICT (singleton) DO UPDATE
		SET admin = EXCLUDED.admin,
		    max_batch_size = EXCLUDED.max_batch_size,
		    fee_per_batch = EXCLUDED.fee_per_batch`,
		platform.Admin, int64(platform.MaxBatchSize), platform.FeePerBatch.Dec(),
	)
	if err != nil {
		return fmt.Errorf("save platform: %w", err)
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, campaignID string) (*engine.AirdropCampaign, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM campaigns WHERE campaign_id = $1`, campaignID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign %s: %w", campaignID, err)
	}
	var campaign engine.AirdropCampaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", campaignID, err)
	}
	return &campaign, nil
}

func (s *Store) SaveCampaign(ctx context.Context, campaign *engine.AirdropCampaign) error {
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("encode campaign %s: %w", campaign.CampaignID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO campaigns (campaign_id, data) VALUES ($1, $2)
		ON CONFLICT (campaign_id) DO UPDATE SET data = EXCLUDED.data`,
		campaign.CampaignID, data,
	)
	if err != nil {
		return fmt.Errorf("save campaign %s: %w", campaign.CampaignID, err)
	}
	return nil
}

func (s *Store) DeleteCampaign(ctx context.Context, campaignID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM campaigns WHERE campaign_id = $1`, campaignID,
	); err != nil {
		return fmt.Errorf("delete campaign %s: %w", campaignID, err)
	}
	return nil
}

// CountCampaigns reports how many campaigns currently hold assets; used for
// the active-campaign gauge.
func (s *Store) CountCampaigns(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return n, nil
}

// SetOperators upserts all pairs in one statement so a failed call leaves
// no partial writes.
func (s *Store) SetOperators(ctx context.Context, accounts []string, flags []bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO operators (account, enabled)
		SELECT * FROM unnest($1::text[], $2::boolean[])
		ON CONFLICT (account) DO UPDATE SET enabled = EXCLUDED.enabled`,
		accounts, flags,
	)
	if err != nil {
		return fmt.Errorf("set operators: %w", err)
	}
	return nil
}

func (s *Store) IsOperator(ctx context.Context, account string) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`SELECT enabled FROM operators WHERE account = $1`, account,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query operator %s: %w", account, err)
	}
	return enabled, nil
}

func (s *Store) TreasuryBalance(ctx context.Context) (*uint256.Int, error) {
	var balance string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT balance::text FROM treasury), '0')`,
	).Scan(&balance)
	if err != nil {
		return nil, fmt.Errorf("query treasury: %w", err)
	}
	v, err := uint256.FromDecimal(balance)
	if err != nil {
		return nil, fmt.Errorf("decode treasury balance: %w", err)
	}
	return v, nil
}

func (s *Store) TreasuryDeposit(ctx context.Context, amount *uint256.Int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO treasury (singleton, balance) VALUES (TRUE, $1::numeric)
		ON CONFLICT (singleton) DO UPDATE SET balance = treasury.balance + EXCLUDED.balance`,
		amount.Dec(),
	)
	if err != nil {
		return fmt.Errorf("treasury deposit: %w", err)
	}
	return nil
}

func (s *Store) TreasuryDeduct(ctx context.Context, amount *uint256.Int) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE treasury SET balance = balance - $1::numeric`, amount.Dec(),
	); err != nil {
		return fmt.Errorf("treasury deduct: %w", err)
	}
	return nil
}
