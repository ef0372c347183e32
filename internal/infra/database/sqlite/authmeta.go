package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/my-files/internal/domain"
)

// SaveOfflineAuth сохраняет (или обновляет) данные офлайн-входа.
func (s *Store) SaveOfflineAuth(ctx context.Context, a domain.OfflineAuth) error {
	q := s.qb().Insert("offline_auth").
		Columns("login", "uid", "pass_hash", "updated_at").
		Values(a.Login, a.UID, a.PassHash, time.Now().UTC().Unix()).
		Suffix("ON CONFLICT(login) DO UPDATE SET uid = excluded.uid, pass_hash = excluded.pass_hash, updated_at = excluded.updated_at")

	sqlStr, args, _ := q.ToSql()
	s.logSQL("SaveOfflineAuth", sqlStr, args)

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		s.logger.Printf("SaveOfflineAuth exec error after %s: %v", time.Since(start), err)
		return err
	}
	s.logger.Printf("SaveOfflineAuth ok in %s login=%s", time.Since(start), a.Login)
	return nil
}

func (s *Store) OfflineAuthByLogin(ctx context.Context, login string) (domain.OfflineAuth, error) {
	q := s.qb().Select("login", "uid", "pass_hash", "updated_at").
		From("offline_auth").
		Where(sq.Eq{"login": login})

	sqlStr, args, _ := q.ToSql()
	s.logSQL("OfflineAuthByLogin", sqlStr, args)

	start := time.Now()
	row := s.db.QueryRowContext(ctx, sqlStr, args...)
	var a domain.OfflineAuth
	var updated int64
	if err := row.Scan(&a.Login, &a.UID, &a.PassHash, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OfflineAuth{}, fmt.Errorf("%w: offline auth for %q", domain.ErrNotFound, login)
		}
		s.logger.Printf("OfflineAuthByLogin scan error after %s: %v", time.Since(start), err)
		return domain.OfflineAuth{}, err
	}
	a.UpdatedAt = time.Unix(updated, 0).UTC()
	s.logger.Printf("OfflineAuthByLogin ok in %s login=%s", time.Since(start), login)
	return a, nil
}
