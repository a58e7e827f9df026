package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lmsrMarket/internal/model"
)

// Store provides Postgres persistence for market state. Each market is a
// row in markets plus its balance rows in positions; Save commits both in
// one transaction so readers never observe a half-applied snapshot.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the markets and positions tables if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS markets (
			id TEXT PRIMARY KEY,
			oracle TEXT NOT NULL,
			collateral_token TEXT NOT NULL,
			liquidity_param NUMERIC(39,0) NOT NULL,
			metadata_hash TEXT NOT NULL,
			yes_sold NUMERIC(39,0) NOT NULL,
			no_sold NUMERIC(39,0) NOT NULL,
			collateral_pool NUMERIC(39,0) NOT NULL,
			resolved BOOLEAN NOT NULL,
			winning_outcome INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS positions (
			market_id TEXT NOT NULL REFERENCES markets(id),
			account TEXT NOT NULL,
			outcome INT NOT NULL,
			balance NUMERIC(39,0) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (market_id, account, outcome)
		);
	`)
	return err
}

func (s *Store) Load(ctx context.Context, id string) (model.MarketState, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, oracle, collateral_token, liquidity_param::text, metadata_hash,
		       yes_sold::text, no_sold::text, collateral_pool::text, resolved, winning_outcome
		FROM markets WHERE id=$1
	`, id)

	state, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MarketState{}, false, nil
		}
		return model.MarketState{}, false, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT account, outcome, balance::text FROM positions WHERE market_id=$1
	`, id)
	if err != nil {
		return model.MarketState{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			account string
			outcome int32
			balance string
		)
		if err := rows.Scan(&account, &outcome, &balance); err != nil {
			return model.MarketState{}, false, err
		}
		v, err := parseNumeric("balance", balance)
		if err != nil {
			return model.MarketState{}, false, err
		}
		state.Balances[model.PositionKey{User: account, Outcome: model.Outcome(outcome)}] = v
	}
	if err := rows.Err(); err != nil {
		return model.MarketState{}, false, err
	}

	if err := state.Validate(); err != nil {
		return model.MarketState{}, false, err
	}
	return state, true, nil
}

func (s *Store) Save(ctx context.Context, state model.MarketState) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO markets (
			id, oracle, collateral_token, liquidity_param, metadata_hash,
			yes_sold, no_sold, collateral_pool, resolved, winning_outcome, created_at, updated_at
		) VALUES ($1,$2,$3,$4::numeric,$5,$6::numeric,$7::numeric,$8::numeric,$9,$10,now(),now())
		ON CONFLICT (id) DO UPDATE SET
			yes_sold = EXCLUDED.yes_sold,
			no_sold = EXCLUDED.no_sold,
			collateral_pool = EXCLUDED.collateral_pool,
			resolved = EXCLUDED.resolved,
			winning_outcome = EXCLUDED.winning_outcome,
			updated_at = now()
	`,
		state.ID,
		state.Oracle,
		state.CollateralToken,
		state.LiquidityParam.String(),
		state.MetadataHash,
		state.YesSold.String(),
		state.NoSold.String(),
		state.CollateralPool.String(),
		state.Resolved,
		int32(state.WinningOutcome),
	)
	if err != nil {
		return err
	}

	for key, balance := range state.Balances {
		_, err = tx.Exec(ctx, `
			INSERT INTO positions (market_id, account, outcome, balance, updated_at)
			VALUES ($1,$2,$3,$4::numeric,now())
			ON CONFLICT (market_id, account, outcome) DO UPDATE SET
				balance = EXCLUDED.balance,
				updated_at = now()
		`, state.ID, key.User, int32(key.Outcome), balance.String())
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) List(ctx context.Context) ([]model.MarketState, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, oracle, collateral_token, liquidity_param::text, metadata_hash,
		       yes_sold::text, no_sold::text, collateral_pool::text, resolved, winning_outcome
		FROM markets ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketState
	for rows.Next() {
		state, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

func scanMarket(row pgx.Row) (model.MarketState, error) {
	var (
		state                    model.MarketState
		liquidity, yes, no, pool string
		winning                  int32
	)
	err := row.Scan(
		&state.ID, &state.Oracle, &state.CollateralToken, &liquidity, &state.MetadataHash,
		&yes, &no, &pool, &state.Resolved, &winning,
	)
	if err != nil {
		return model.MarketState{}, err
	}
	state.WinningOutcome = model.Outcome(winning)
	state.Balances = make(map[model.PositionKey]*big.Int)

	if state.LiquidityParam, err = parseNumeric("liquidity_param", liquidity); err != nil {
		return model.MarketState{}, err
	}
	if state.YesSold, err = parseNumeric("yes_sold", yes); err != nil {
		return model.MarketState{}, err
	}
	if state.NoSold, err = parseNumeric("no_sold", no); err != nil {
		return model.MarketState{}, err
	}
	if state.CollateralPool, err = parseNumeric("collateral_pool", pool); err != nil {
		return model.MarketState{}, err
	}
	return state, nil
}

func parseNumeric(name, value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s %q", model.ErrStorageCorrupted, name, value)
	}
	return v, nil
}
