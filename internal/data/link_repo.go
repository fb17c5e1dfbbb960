package data

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	"flashlink/internal/domain"
)

// Compile-time interface check
var _ domain.LinkRepository = (*LinkRepo)(nil)

// deleteBatchSize bounds the IN list of one expiry delete statement.
const deleteBatchSize = 500

// LinkRepo stores short links in the relational store.
type LinkRepo struct {
	data *Data
	log  *log.Helper
}

// NewLinkRepo creates a new link repository.
func NewLinkRepo(data *Data, logger log.Logger) *LinkRepo {
	return &LinkRepo{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/link")),
	}
}

func (r *LinkRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.data.db.Dialect())
}

// Exists checks if a short code is already taken.
func (r *LinkRepo) Exists(ctx context.Context, code domain.ShortCode) (bool, error) {
	b := r.builder()
	query, args := b.Select(columnID).
		From(entsql.Table(shortLinksTable)).
		Where(entsql.EQ(columnShortCode, code.String())).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.data.db.Query(ctx, query, args, rows); err != nil {
		return false, err
	}
	defer rows.Close()

	exists := rows.Next()
	return exists, rows.Err()
}

// Save inserts a new short link.
func (r *LinkRepo) Save(ctx context.Context, link *domain.ShortLink) error {
	metadata, err := encodeMetadata(link.Metadata)
	if err != nil {
		return err
	}

	b := r.builder()
	query, args := b.Insert(shortLinksTable).
		Columns(shortLinkColumnNames...).
		Values(
			link.ID,
			link.ShortCode.String(),
			link.LongURL.String(),
			link.CreatedAt.UTC(),
			utcPtr(link.ExpiryAt),
			link.TTLSeconds,
			lo.EmptyableToPtr(link.OwnerID),
			link.RedirectCount,
			utcPtr(link.LastRedirectAt),
			metadata,
		).
		Query()

	var res stdsql.Result
	if err := r.data.db.Exec(ctx, query, args, &res); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return domain.ErrShortCodeExists
		}
		return err
	}
	return nil
}

// FindByShortCode retrieves a link by its short code, expired or not.
// Returns nil if not found.
func (r *LinkRepo) FindByShortCode(ctx context.Context, code domain.ShortCode) (*domain.ShortLink, error) {
	b := r.builder()
	query, args := b.Select(shortLinkColumnNames...).
		From(entsql.Table(shortLinksTable)).
		Where(entsql.EQ(columnShortCode, code.String())).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.data.db.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanShortLink(rows)
}

// RecordRedirect atomically increments the redirect count and stamps the last redirect.
func (r *LinkRepo) RecordRedirect(ctx context.Context, code domain.ShortCode, at time.Time) error {
	b := r.builder()
	query, args := b.Update(shortLinksTable).
		Add(columnRedirectCount, 1).
		Set(columnLastRedirectAt, at.UTC()).
		Where(entsql.EQ(columnShortCode, code.String())).
		Query()

	var res stdsql.Result
	if err := r.data.db.Exec(ctx, query, args, &res); err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a link by its short code.
func (r *LinkRepo) Delete(ctx context.Context, code domain.ShortCode) error {
	b := r.builder()
	query, args := b.Delete(shortLinksTable).
		Where(entsql.EQ(columnShortCode, code.String())).
		Query()

	var res stdsql.Result
	if err := r.data.db.Exec(ctx, query, args, &res); err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteExpired removes every link whose expiry is at or before now in one
// transaction and returns the removed codes.
func (r *LinkRepo) DeleteExpired(ctx context.Context, now time.Time) (_ []domain.ShortCode, err error) {
	tx, err := r.data.db.Tx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				r.log.WithContext(ctx).Errorf("rollback expiry sweep: %v", rerr)
			}
		}
	}()

	codes, err := r.selectExpired(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	b := r.builder()
	for _, chunk := range lo.Chunk(codes, deleteBatchSize) {
		query, args := b.Delete(shortLinksTable).
			Where(entsql.In(columnShortCode, lo.ToAnySlice(chunk)...)).
			Query()
		var res stdsql.Result
		if err = tx.Exec(ctx, query, args, &res); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return lo.FilterMap(codes, func(c string, _ int) (domain.ShortCode, bool) {
		sc, err := domain.NewShortCode(c)
		return sc, err == nil
	}), nil
}

func (r *LinkRepo) selectExpired(ctx context.Context, tx dialect.Tx, now time.Time) ([]string, error) {
	b := r.builder()
	query, args := b.Select(columnShortCode).
		From(entsql.Table(shortLinksTable)).
		Where(entsql.And(
			entsql.NotNull(columnExpiryAt),
			entsql.LTE(columnExpiryAt, now.UTC()),
		)).
		Query()

	rows := &entsql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func scanShortLink(rows *entsql.Rows) (*domain.ShortLink, error) {
	var (
		id             int64
		code           string
		longURL        string
		createdAt      time.Time
		expiryAt       stdsql.NullTime
		ttlSeconds     stdsql.NullInt64
		ownerID        stdsql.NullString
		redirectCount  int64
		lastRedirectAt stdsql.NullTime
		metadata       []byte
	)
	if err := rows.Scan(&id, &code, &longURL, &createdAt, &expiryAt, &ttlSeconds, &ownerID,
		&redirectCount, &lastRedirectAt, &metadata); err != nil {
		return nil, err
	}

	shortCode, err := domain.NewShortCode(code)
	if err != nil {
		return nil, fmt.Errorf("stored short code %q: %w", code, err)
	}
	long, err := domain.NewLongURL(longURL)
	if err != nil {
		return nil, fmt.Errorf("stored long url of %q: %w", code, err)
	}
	meta, err := decodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	link := &domain.ShortLink{
		ID:            id,
		ShortCode:     shortCode,
		LongURL:       long,
		CreatedAt:     createdAt.UTC(),
		OwnerID:       ownerID.String,
		RedirectCount: redirectCount,
		Metadata:      meta,
	}
	if expiryAt.Valid {
		link.ExpiryAt = lo.ToPtr(expiryAt.Time.UTC())
	}
	if ttlSeconds.Valid {
		link.TTLSeconds = lo.ToPtr(ttlSeconds.Int64)
	}
	if lastRedirectAt.Valid {
		link.LastRedirectAt = lo.ToPtr(lastRedirectAt.Time.UTC())
	}
	return link, nil
}

func requireAffected(res stdsql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC())
}

func encodeMetadata(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return lo.ToPtr(string(b)), nil
}

func decodeMetadata(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
