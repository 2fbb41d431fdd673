package operations

// Pipeline step identifiers, in execution order.
const (
	StepIDValidate  = "validate"
	StepIDLoad      = "load"
	StepIDDerive    = "derive"
	StepIDAggregate = "aggregate"
	StepIDRender    = "render"
	StepIDCompose   = "compose"
	StepIDExport    = "export"
	StepIDManifest  = "manifest"
)

// Pipeline step names
const (
	StepNameValidate  = "Input Validation"
	StepNameLoad      = "Readings Load"
	StepNameDerive    = "Feature Derivation"
	StepNameAggregate = "Aggregation"
	StepNameRender    = "Chart Rendering"
	StepNameCompose   = "Report Composition"
	StepNameExport    = "Aggregate Export"
	StepNameManifest  = "Run Manifest"
)

// StepIDs lists every step of a full run in execution order.
func StepIDs() []string {
	return []string{
		StepIDValidate,
		StepIDLoad,
		StepIDDerive,
		StepIDAggregate,
		StepIDRender,
		StepIDCompose,
		StepIDExport,
		StepIDManifest,
	}
}
