// Package report composes the HTML report.
//
// A template names its inputs as {placeholder} tokens and writes literal
// braces doubled. BuildValues produces the text for every placeholder the
// report uses and Composer substitutes them, refusing to write anything when
// the template references a name without a value.
package report
