package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/generation"
	"github.com/kbukum/flowkit/intent"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to Postgres and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.ConnectionFailed("postgres").WithCause(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.ConnectionFailed("postgres").WithCause(err)
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS deployments (
	id                   TEXT PRIMARY KEY,
	idempotency_key      TEXT NOT NULL DEFAULT '',
	user_id              TEXT NOT NULL DEFAULT '',
	name                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL,
	steps_completed      JSONB NOT NULL DEFAULT '[]',
	external_workflow_id TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS deployments_idempotency_key
	ON deployments (idempotency_key)
	WHERE idempotency_key <> '' AND state <> 'rolled_back';

CREATE TABLE IF NOT EXISTS feedback (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL DEFAULT '',
	request_text TEXT NOT NULL DEFAULT '',
	intent       JSONB NOT NULL DEFAULT '{}',
	outcome      TEXT NOT NULL,
	graph_shape  TEXT NOT NULL DEFAULT '',
	diagnosis    TEXT NOT NULL DEFAULT '',
	attempts     JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return errors.StoreError(err)
	}
	return nil
}

func (p *Postgres) CreateDeployment(ctx context.Context, d *Deployment) error {
	steps, err := json.Marshal(d.StepsCompleted)
	if err != nil {
		return errors.StoreError(err)
	}
	const q = `
INSERT INTO deployments (id, idempotency_key, user_id, name, state, steps_completed, external_workflow_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`
	err = p.pool.QueryRow(ctx, q,
		d.ID, d.IdempotencyKey, d.UserID, d.Name, string(d.State), steps, d.ExternalWorkflowID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return errors.StoreError(err)
	}
	return nil
}

func (p *Postgres) DeploymentByKey(ctx context.Context, idempotencyKey string) (*Deployment, error) {
	const q = `
SELECT id, idempotency_key, user_id, name, state, steps_completed, external_workflow_id, created_at, updated_at
FROM deployments
WHERE idempotency_key = $1 AND state <> 'rolled_back'
ORDER BY created_at DESC
LIMIT 1`
	var (
		d     Deployment
		state string
		steps []byte
	)
	err := p.pool.QueryRow(ctx, q, idempotencyKey).Scan(
		&d.ID, &d.IdempotencyKey, &d.UserID, &d.Name, &state, &steps,
		&d.ExternalWorkflowID, &d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("deployment", idempotencyKey)
	}
	if err != nil {
		return nil, errors.StoreError(err)
	}
	d.State = DeploymentState(state)
	if err := json.Unmarshal(steps, &d.StepsCompleted); err != nil {
		return nil, errors.StoreError(err)
	}
	return &d, nil
}

func (p *Postgres) UpdateDeployment(ctx context.Context, d *Deployment) error {
	steps, err := json.Marshal(d.StepsCompleted)
	if err != nil {
		return errors.StoreError(err)
	}
	const q = `
UPDATE deployments
SET state = $2, steps_completed = $3, external_workflow_id = $4, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err = p.pool.QueryRow(ctx, q, d.ID, string(d.State), steps, d.ExternalWorkflowID).Scan(&d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return errors.NotFound("deployment", d.ID)
	}
	if err != nil {
		return errors.StoreError(err)
	}
	return nil
}

func (p *Postgres) DeleteDeployment(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM deployments WHERE id = $1`, id); err != nil {
		return errors.StoreError(err)
	}
	return nil
}

func (p *Postgres) SaveFeedback(ctx context.Context, f *Feedback) error {
	intentDoc, err := json.Marshal(f.Intent)
	if err != nil {
		return errors.StoreError(err)
	}
	attempts, err := json.Marshal(f.Attempts)
	if err != nil {
		return errors.StoreError(err)
	}
	const q = `
INSERT INTO feedback (id, user_id, request_text, intent, outcome, graph_shape, diagnosis, attempts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	err = p.pool.QueryRow(ctx, q,
		f.ID, f.UserID, f.RequestText, intentDoc, string(f.Outcome), f.GraphShape, f.Diagnosis, attempts,
	).Scan(&f.CreatedAt)
	if err != nil {
		return errors.StoreError(err)
	}
	return nil
}

func (p *Postgres) FeedbackByID(ctx context.Context, id string) (*Feedback, error) {
	const q = `
SELECT id, user_id, request_text, intent, outcome, graph_shape, diagnosis, attempts, created_at
FROM feedback
WHERE id = $1`
	var (
		f         Feedback
		outcome   string
		intentDoc []byte
		attempts  []byte
	)
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&f.ID, &f.UserID, &f.RequestText, &intentDoc, &outcome,
		&f.GraphShape, &f.Diagnosis, &attempts, &f.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("feedback", id)
	}
	if err != nil {
		return nil, errors.StoreError(err)
	}
	f.Outcome = Outcome(outcome)
	var in intent.Intent
	if err := json.Unmarshal(intentDoc, &in); err != nil {
		return nil, errors.StoreError(err)
	}
	f.Intent = in
	var att []generation.Attempt
	if err := json.Unmarshal(attempts, &att); err != nil {
		return nil, errors.StoreError(err)
	}
	f.Attempts = att
	return &f, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
