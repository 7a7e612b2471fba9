package config

// GraphFileExt is the default extension of saved graphs.
const GraphFileExt = ".flow.yaml"

// SettingsFileName is looked up next to the graph when no -config is given.
const SettingsFileName = "funflow.yaml"

// Runtime entry points the lowered code calls. The target VM must provide
// them with exactly this arity and argument order:
//
//	__GetOutput(value, key)
//	__ComposeBuffered(pair, remainingArity, terminator)
const (
	GetOutputFuncName       = "__GetOutput"
	GetOutputArity          = 2
	ComposeBufferedFuncName = "__ComposeBuffered"
	ComposeBufferedArity    = 3
)

// Identifier prefixes used by the naming schemes and the lowering core.
const (
	PreviewPrefix   = "var_"
	OutputSuffix    = "_out"
	PartialPrefix   = "__partial_"
	ThisParamName   = "this"
	DefaultPortName = "var"
)
