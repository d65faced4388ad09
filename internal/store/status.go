package store

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// GetStatus returns status information about the repository and job store.
func (s *SQLStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:          string(s.label),
		Connected:        s.db != nil,
		JobsByStatus:     make(map[schema.JobStatus]int),
		TableSizes:       make(map[string]int64),
		IssuesBySeverity: make(map[schema.Severity]int64),
	}

	for _, table := range storeTables {
		var count int64
		if err := s.db.QueryRow(s.q("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRepos = int(status.TableSizes[repositoriesTable])
	status.TotalJobs = int(status.TableSizes[jobsTable])
	if status.TotalJobs == 0 {
		return status, nil
	}

	rows, err := s.db.Query(s.q("SELECT status, COUNT(*) FROM %s GROUP BY status", jobsTable))
	if err != nil {
		return status, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			_ = rows.Close()
			return status, fmt.Errorf("failed to scan job status count: %w", err)
		}
		status.JobsByStatus[schema.JobStatus(st)] = n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating job status counts: %w", err)
	}

	rows, err = s.db.Query(s.q("SELECT severity, COUNT(*) FROM %s GROUP BY severity", issuesTable))
	if err != nil {
		return status, fmt.Errorf("failed to count issues by severity: %w", err)
	}
	for rows.Next() {
		var sev string
		var n int64
		if err := rows.Scan(&sev, &n); err != nil {
			_ = rows.Close()
			return status, fmt.Errorf("failed to scan issue severity count: %w", err)
		}
		status.IssuesBySeverity[schema.Severity(sev)] = n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating issue severity counts: %w", err)
	}

	last := newTimeColumn(s.backend)
	if err := s.db.QueryRow(s.q("SELECT job_id, created_at FROM %s ORDER BY created_at DESC, job_id DESC LIMIT 1", jobsTable)).
		Scan(&status.LastJobID, last.dest()); err != nil {
		return status, fmt.Errorf("failed to get last job: %w", err)
	}
	if status.LastJobTime, err = last.required(); err != nil {
		return status, err
	}

	oldest := newTimeColumn(s.backend)
	if err := s.db.QueryRow(s.q("SELECT created_at FROM %s ORDER BY created_at ASC LIMIT 1", jobsTable)).Scan(oldest.dest()); err != nil {
		return status, fmt.Errorf("failed to get oldest job: %w", err)
	}
	if status.OldestJobTime, err = oldest.required(); err != nil {
		return status, err
	}

	return status, nil
}

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Repositories: %d\n", status.TotalRepos)
	_, _ = fmt.Fprintf(w, "Total Jobs: %d\n", status.TotalJobs)
	if status.TotalJobs > 0 {
		for _, st := range slices.Sorted(maps.Keys(status.JobsByStatus)) {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", st, status.JobsByStatus[st])
		}
		_, _ = fmt.Fprintf(w, "Last Job ID: %s\n", status.LastJobID)
		_, _ = fmt.Fprintf(w, "Last Job: %s\n", status.LastJobTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Job: %s\n", status.OldestJobTime.Format("2006-01-02 15:04:05"))
	}
	if len(status.IssuesBySeverity) > 0 {
		_, _ = fmt.Fprintln(w, "Issues by Severity:")
		for _, sev := range slices.Sorted(maps.Keys(status.IssuesBySeverity)) {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", sev, status.IssuesBySeverity[sev])
		}
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", status.LastEntryTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntryTime.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}
