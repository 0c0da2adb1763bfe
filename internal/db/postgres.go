package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each collection in a table of (id, doc JSONB)
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates a pool for dsn with retry logic for serverless databases
func NewPostgresStore(ctx context.Context, dsn string, maxRetries int, initialDelay time.Duration) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	poolConfig.MaxConns = 30
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	origHost := poolConfig.ConnConfig.Host

	// Simple protocol keeps us compatible with transaction poolers
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, address string) (net.Conn, error) {
		// Prefer IPv4 when available, fall back to dual-stack
		host, port, err := net.SplitHostPort(address)
		if err != nil || host == "" || port == "" {
			host = origHost
			port = "5432"
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err == nil {
			for _, ipa := range ips {
				if ipv4 := ipa.IP.To4(); ipv4 != nil {
					return (&net.Dialer{}).DialContext(ctx, "tcp4", net.JoinHostPort(ipv4.String(), port))
				}
			}
		}
		return (&net.Dialer{}).DialContext(ctx, "tcp", address)
	}
	if poolConfig.ConnConfig.TLSConfig != nil && poolConfig.ConnConfig.TLSConfig.ServerName == "" {
		poolConfig.ConnConfig.TLSConfig.ServerName = origHost
	}

	var pool *pgxpool.Pool
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[DB] Postgres connection attempt %d/%d to %s@%s:%d",
			attempt, maxRetries, poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			lastErr = fmt.Errorf("failed to create connection pool: %w", err)
			log.Printf("[DB] Failed to create pool (attempt %d): %v", attempt, err)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Printf("[DB] Successfully connected to database on attempt %d", attempt)
				return &PostgresStore{Pool: pool}, nil
			}
			lastErr = fmt.Errorf("failed to ping database: %w", err)
			log.Printf("[DB] Connection failed (attempt %d): %v", attempt, err)
			pool.Close()
		}
		if attempt < maxRetries {
			// Exponential backoff: 1s, 2s, 4s, 8s, 16s
			delay := initialDelay * time.Duration(1<<(attempt-1))
			log.Printf("[DB] Retrying in %v...", delay)
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// Migrate creates one table per collection
func (s *PostgresStore) Migrate(ctx context.Context, collections []string) error {
	for _, coll := range collections {
		sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table(coll))
		if _, err := s.Pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create table %s: %w", coll, err)
		}
	}
	return nil
}

func table(coll string) string {
	return pgx.Identifier{coll}.Sanitize()
}

// jsonPath turns "customer.email" into '{customer,email}'. Field names are validated by checkField.
func jsonPath(field string) string {
	return "'{" + strings.ReplaceAll(field, ".", ",") + "}'"
}

type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(filter Filter, opts *FindOptions) error {
	for k, v := range filter {
		if k == "id" {
			w.clauses = append(w.clauses, "id = "+w.arg(fmt.Sprint(v)))
			continue
		}
		if r, ok := v.(Between); ok {
			expr := fmt.Sprintf("(doc #>> %s)::bigint", jsonPath(k))
			w.clauses = append(w.clauses, fmt.Sprintf("%s > %s AND %s < %s", expr, w.arg(r.Min), expr, w.arg(r.Max)))
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode filter %s: %w", k, err)
		}
		// jsonb containment: scalar @> scalar is equality, array @> scalar is membership
		w.clauses = append(w.clauses, fmt.Sprintf("doc #> %s @> %s::jsonb", jsonPath(k), w.arg(string(b))))
	}
	if opts != nil {
		for k, needle := range opts.Match {
			pattern := "%" + likeEscape(needle) + "%"
			w.clauses = append(w.clauses, fmt.Sprintf("doc #>> %s ILIKE %s", jsonPath(k), w.arg(pattern)))
		}
	}
	return nil
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func pgErr(coll string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", coll, ErrNotFound)
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == "23505" {
		return fmt.Errorf("%s: %w", coll, ErrConflict)
	}
	return fmt.Errorf("%s: %w", coll, err)
}

func encodeDoc(id string, doc any) ([]byte, error) {
	d, err := toMap(doc)
	if err != nil {
		return nil, err
	}
	d["id"] = id
	return json.Marshal(d)
}

func (s *PostgresStore) Insert(ctx context.Context, coll, id string, doc any) error {
	b, err := encodeDoc(id, doc)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)", table(coll)), id, string(b))
	return pgErr(coll, err)
}

func (s *PostgresStore) FindByID(ctx context.Context, coll, id string, out any) error {
	var raw []byte
	err := s.Pool.QueryRow(ctx, fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", table(coll)), id).Scan(&raw)
	if err != nil {
		return pgErr(coll, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresStore) FindOne(ctx context.Context, coll string, filter Filter, out any) error {
	if err := checkFilter(filter, nil); err != nil {
		return err
	}
	var w whereBuilder
	if err := w.add(filter, nil); err != nil {
		return err
	}
	var raw []byte
	q := fmt.Sprintf("SELECT doc FROM %s%s ORDER BY created_at LIMIT 1", table(coll), w.sql())
	if err := s.Pool.QueryRow(ctx, q, w.args...).Scan(&raw); err != nil {
		return pgErr(coll, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresStore) Find(ctx context.Context, coll string, filter Filter, opts *FindOptions, out any) error {
	if err := checkFilter(filter, opts); err != nil {
		return err
	}
	var w whereBuilder
	if err := w.add(filter, opts); err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT doc FROM %s%s", table(coll), w.sql())
	order := " ORDER BY created_at"
	if opts != nil {
		if opts.Sort != "" {
			dir := "ASC"
			if opts.Desc {
				dir = "DESC"
			}
			order = fmt.Sprintf(" ORDER BY doc #> %s %s, created_at", jsonPath(opts.Sort), dir)
		}
		q += order
		if opts.Limit > 0 {
			q += " LIMIT " + w.arg(opts.Limit)
		}
		if opts.Skip > 0 {
			q += " OFFSET " + w.arg(opts.Skip)
		}
	} else {
		q += order
	}

	rows, err := s.Pool.Query(ctx, q, w.args...)
	if err != nil {
		return pgErr(coll, err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return pgErr(coll, err)
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return pgErr(coll, err)
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *PostgresStore) Count(ctx context.Context, coll string, filter Filter) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	var w whereBuilder
	if err := w.add(filter, nil); err != nil {
		return 0, err
	}
	var n int64
	err := s.Pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table(coll), w.sql()), w.args...).Scan(&n)
	return n, pgErr(coll, err)
}

func (s *PostgresStore) Replace(ctx context.Context, coll, id string, doc any) error {
	b, err := encodeDoc(id, doc)
	if err != nil {
		return err
	}
	ct, err := s.Pool.Exec(ctx, fmt.Sprintf("UPDATE %s SET doc = $2::jsonb WHERE id = $1", table(coll)), id, string(b))
	if err != nil {
		return pgErr(coll, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	ct, err := s.Pool.Exec(ctx, fmt.Sprintf("UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1", table(coll)), id, string(b))
	if err != nil {
		return pgErr(coll, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) UpdateMany(ctx context.Context, coll string, filter Filter, fields map[string]any) (int64, error) {
	if err := checkFilter(filter, nil); err != nil {
		return 0, err
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return 0, err
	}
	w := whereBuilder{args: []any{string(b)}}
	if err := w.add(filter, nil); err != nil {
		return 0, err
	}
	ct, err := s.Pool.Exec(ctx, fmt.Sprintf("UPDATE %s SET doc = doc || $1::jsonb%s", table(coll), w.sql()), w.args...)
	if err != nil {
		return 0, pgErr(coll, err)
	}
	return ct.RowsAffected(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, coll, id string) error {
	ct, err := s.Pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table(coll)), id)
	if err != nil {
		return pgErr(coll, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) EnsureUnique(ctx context.Context, coll string, fields ...string) error {
	exprs := make([]string, 0, len(fields))
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		// coalesce so that a missing field collides like a Mongo null
		exprs = append(exprs, fmt.Sprintf("(coalesce(doc #>> %s, ''))", jsonPath(f)))
	}
	name := pgx.Identifier{strings.ToLower(coll + "_" + strings.Join(fields, "_") + "_uniq")}.Sanitize()
	sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", name, table(coll), strings.Join(exprs, ", "))
	if _, err := s.Pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create index on %s: %w", coll, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.Pool.Close()
	log.Println("[DB] Database connection pool closed")
	return nil
}
