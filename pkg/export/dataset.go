package export

// Dataset is the format-neutral table every exporter renders. Rows are
// keyed by header name so sparse rows render as blank cells.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
