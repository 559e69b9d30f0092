package queries

const (
	GetOccupiedSlots = `
		SELECT slot
		FROM turnos
		WHERE status IN ('aprobado', 'completado')
		  AND slot >= $1
		  AND slot < $2
		ORDER BY slot
	`

	NextTurnoDailyNumber = `
		INSERT INTO turno_daily_sequences (day, last_number)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE
		SET last_number = turno_daily_sequences.last_number + 1
		RETURNING last_number
	`
)
