// Package shared holds code used by several packages that belongs to none
// of them.
//
// The testutil subpackage provides the sample air-quality dataset (as a
// table, a workbook or a CSV file), a report template that uses every
// placeholder, and a slog handler that captures records for assertions.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		logger, handler := testutil.NewTestLogger(t)
//		input := testutil.WriteSampleWorkbook(t, t.TempDir())
//		...
//		testutil.AssertNoErrors(t, handler)
//	}
package shared
