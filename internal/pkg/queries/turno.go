package queries

const (
	InsertTurno = `
		INSERT INTO turnos (
			id,
			requester_id,
			document_hash,
			requested_at,
			status,
			requester_notes,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	InsertTurnoLineItem = `
		INSERT INTO turno_line_items (
			id,
			turno_id,
			position,
			kind,
			catalog_item_id,
			requested_quantity,
			available_when_requested,
			approved_quantity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	GetTurnoByID = `
		SELECT
			id,
			requester_id,
			document_hash,
			slot,
			daily_number,
			requested_at,
			status,
			requester_notes,
			reviewer_notes,
			reviewer_id,
			reviewed_at,
			delivered_at,
			ticket_reference,
			updated_at
		FROM turnos
		WHERE id = $1
	`

	GetTurnoByIDForUpdate = GetTurnoByID + ` FOR UPDATE`

	GetTurnos = `
		SELECT
			id,
			requester_id,
			document_hash,
			slot,
			daily_number,
			requested_at,
			status,
			requester_notes,
			reviewer_notes,
			reviewer_id,
			reviewed_at,
			delivered_at,
			ticket_reference,
			updated_at
		FROM turnos
		WHERE ($1 = '' OR requester_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY requested_at DESC, id
		LIMIT $3 OFFSET $4
	`

	CountTurnos = `
		SELECT COUNT(*)
		FROM turnos
		WHERE ($1 = '' OR requester_id = $1)
		  AND ($2 = '' OR status = $2)
	`

	GetTurnoLineItemsByTurnoIDs = `
		SELECT
			id,
			turno_id,
			kind,
			catalog_item_id,
			requested_quantity,
			available_when_requested,
			approved_quantity
		FROM turno_line_items
		WHERE turno_id = ANY($1::uuid[])
		ORDER BY turno_id, position
	`

	UpdateTurno = `
		UPDATE turnos
		SET
			slot = $1,
			slot_day = $2,
			daily_number = $3,
			status = $4,
			reviewer_notes = $5,
			reviewer_id = $6,
			reviewed_at = $7,
			delivered_at = $8,
			ticket_reference = $9,
			updated_at = $10
		WHERE id = $11
	`

	UpdateTurnoLineItemApprovedQuantity = `
		UPDATE turno_line_items
		SET approved_quantity = $1
		WHERE id = $2 AND turno_id = $3
	`

	CountRequesterTurnosInWindow = `
		SELECT COUNT(*)
		FROM turnos
		WHERE requester_id = $1
		  AND requested_at >= $2
		  AND requested_at < $3
		  AND status = ANY($4)
	`
)
