package prettyprinter

const (
	colorReset   = "\033[0m"
	colorIdent   = "\033[36m"
	colorLiteral = "\033[32m"
	colorKeyword = "\033[35m"
)
