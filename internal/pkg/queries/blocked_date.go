package queries

const (
	InsertBlockedDate = `
		INSERT INTO blocked_dates (
			date,
			reason,
			created_by,
			created_at
		) VALUES ($1, $2, $3, $4)
	`

	DeleteBlockedDate = `
		DELETE FROM blocked_dates
		WHERE date = $1
	`

	GetBlockedDate = `
		SELECT
			to_char(date, 'YYYY-MM-DD'),
			reason,
			created_by,
			created_at
		FROM blocked_dates
		WHERE date = $1
	`

	GetAllBlockedDates = `
		SELECT
			to_char(date, 'YYYY-MM-DD'),
			reason,
			created_by,
			created_at
		FROM blocked_dates
		ORDER BY date
	`

	GetBlockedDatesBetween = `
		SELECT
			to_char(date, 'YYYY-MM-DD'),
			reason,
			created_by,
			created_at
		FROM blocked_dates
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`
)
