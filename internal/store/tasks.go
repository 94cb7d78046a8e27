package store

import (
	"context"
	"time"
)

// SaveTask records or replaces a background task registration.
func (db *DB) SaveTask(ctx context.Context, reg TaskRegistration) error {
	if reg.RegisteredAt == 0 {
		reg.RegisteredAt = time.Now().UnixMilli()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO background_tasks (task_id, min_interval_seconds, stop_on_terminate, start_on_boot, registered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			min_interval_seconds = excluded.min_interval_seconds,
			stop_on_terminate = excluded.stop_on_terminate,
			start_on_boot = excluded.start_on_boot,
			registered_at = excluded.registered_at`,
		reg.TaskID, reg.MinIntervalSeconds, reg.StopOnTerminate, reg.StartOnBoot, reg.RegisteredAt)
	return err
}

// DeleteTask removes a registration. Unknown ids are not an error.
func (db *DB) DeleteTask(ctx context.Context, taskID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM background_tasks WHERE task_id = ?`, taskID)
	return err
}

// ListTasks returns every persisted registration ordered by id.
func (db *DB) ListTasks(ctx context.Context) ([]TaskRegistration, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, min_interval_seconds, stop_on_terminate, start_on_boot, registered_at
		FROM background_tasks ORDER BY task_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var regs []TaskRegistration
	for rows.Next() {
		var r TaskRegistration
		if err := rows.Scan(&r.TaskID, &r.MinIntervalSeconds, &r.StopOnTerminate, &r.StartOnBoot, &r.RegisteredAt); err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}
