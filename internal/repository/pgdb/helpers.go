package pgdb

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// postgresDuplicate сообщает о нарушении уникального ограничения.
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// postgresReferenced сообщает, что на удаляемую строку ссылаются другие таблицы.
func postgresReferenced(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// nonNilIDs нужен для ANY($n): pgx кодирует nil-слайс как NULL, и условие NOT (id = ANY(NULL)) отбрасывает все строки.
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
