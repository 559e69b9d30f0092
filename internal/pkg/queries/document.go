package queries

const (
	InsertTurnoDocument = `
		INSERT INTO turno_documents (
			id,
			turno_id,
			category,
			object_name,
			file_name,
			content_type,
			uploaded_by,
			uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	GetTurnoDocumentsByTurnoID = `
		SELECT
			id,
			turno_id,
			category,
			object_name,
			file_name,
			content_type,
			uploaded_by,
			uploaded_at
		FROM turno_documents
		WHERE turno_id = $1
		ORDER BY uploaded_at, id
	`
)
