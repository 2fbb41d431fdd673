package dataprocessing

import (
	"time"

	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// DeriveFeatures returns a copy of t in which every reading carries its
// calendar date (FechaSolo) and month bucket (Mes). The derived column
// names are appended after the source columns. t itself is not modified.
func DeriveFeatures(t *domain.Table) *domain.Table {
	out := &domain.Table{
		Columns:  make([]string, 0, len(t.Columns)+2),
		Readings: make([]domain.Reading, len(t.Readings)),
		Derived:  true,
	}

	for _, c := range t.Columns {
		if c == domain.ColumnDate || c == domain.ColumnMonth {
			continue
		}
		out.Columns = append(out.Columns, c)
	}
	out.Columns = append(out.Columns, domain.ColumnDate, domain.ColumnMonth)

	for i, r := range t.Readings {
		r.Date = DateOf(r.Timestamp)
		r.Month = domain.MonthOf(r.Timestamp)
		out.Readings[i] = r
	}

	return out
}

// DateOf truncates ts to midnight in its own location.
func DateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
