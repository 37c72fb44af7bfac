package store

import "time"

// QueuePrintJob adds a rendered receipt to the print queue.
func (db *DB) QueuePrintJob(id, orderID, document string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(db.rebind(`
		INSERT INTO print_jobs (id, order_id, document, status, created_at, updated_at)
		VALUES (?, ?, ?, 'queued', ?, ?)`),
		id, orderID, document, now, now)
	return err
}

// MarkPrintJobPrinting updates a job to 'printing' status.
func (db *DB) MarkPrintJobPrinting(id string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(db.rebind(`UPDATE print_jobs SET status = 'printing', updated_at = ? WHERE id = ?`), now, id)
	return err
}

// MarkPrintJobPrinted updates a job to 'printed' status.
func (db *DB) MarkPrintJobPrinted(id string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(db.rebind(`UPDATE print_jobs SET status = 'printed', updated_at = ? WHERE id = ?`), now, id)
	return err
}

// MarkPrintJobFailed updates a job to 'failed' with an error message.
func (db *DB) MarkPrintJobFailed(id, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(db.rebind(`UPDATE print_jobs SET status = 'failed', error_message = ?, updated_at = ? WHERE id = ?`), errMsg, now, id)
	return err
}

// PendingPrintJobs returns jobs that are still queued, oldest first.
func (db *DB) PendingPrintJobs() ([]PrintJob, error) {
	rows, err := db.Query(`
		SELECT id, order_id, document, status, error_message, created_at, updated_at
		FROM print_jobs WHERE status = 'queued' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []PrintJob
	for rows.Next() {
		var j PrintJob
		if err := rows.Scan(&j.ID, &j.OrderID, &j.Document, &j.Status, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
