package sqlite

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/my-files/internal/domain"
)

// ReplaceSnapshot целиком заменяет снапшот каталога пользователя.
// Позиция сохраняет порядок выдачи провайдера.
func (s *Store) ReplaceSnapshot(ctx context.Context, identityID string, records []domain.FileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	del := s.qb().Delete("catalog_snapshots").Where(sq.Eq{"identity_id": identityID})
	sqlStr, args, _ := del.ToSql()
	s.logSQL("ReplaceSnapshot.delete", sqlStr, args)

	start := time.Now()
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		s.logger.Printf("ReplaceSnapshot delete error after %s: %v", time.Since(start), err)
		return err
	}

	for i, r := range records {
		ins := s.qb().Insert("catalog_snapshots").
			Columns("identity_id", "position", "object_key", "name", "locator", "kind", "sync_state").
			Values(identityID, i, r.ID, r.Name, r.Locator, string(r.Kind), string(r.SyncState))
		sqlStr, args, _ = ins.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			s.logger.Printf("ReplaceSnapshot insert error: %v", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Printf("ReplaceSnapshot ok in %s identity=%s count=%d", time.Since(start), identityID, len(records))
	return nil
}

// Snapshot возвращает последний сохранённый каталог пользователя.
func (s *Store) Snapshot(ctx context.Context, identityID string) ([]domain.FileRecord, error) {
	q := s.qb().Select("object_key", "name", "locator", "kind", "sync_state").
		From("catalog_snapshots").
		Where(sq.Eq{"identity_id": identityID}).
		OrderBy("position ASC")

	sqlStr, args, _ := q.ToSql()
	s.logSQL("Snapshot", sqlStr, args)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		s.logger.Printf("Snapshot query error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	var res []domain.FileRecord
	for rows.Next() {
		var r domain.FileRecord
		var kind, state string
		if err := rows.Scan(&r.ID, &r.Name, &r.Locator, &kind, &state); err != nil {
			s.logger.Printf("Snapshot scan error: %v", err)
			return nil, err
		}
		r.Kind = domain.Kind(kind)
		r.SyncState = domain.SyncState(state)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		s.logger.Printf("Snapshot rows error: %v", err)
		return nil, err
	}
	s.logger.Printf("Snapshot ok in %s identity=%s count=%d", time.Since(start), identityID, len(res))
	return res, nil
}
