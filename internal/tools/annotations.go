package tools

// ReadOnlyAnnotations is the hint set shared by the whole catalog: no tool
// here mutates anything or reaches outside the process.
func ReadOnlyAnnotations() map[string]bool {
	return map[string]bool{
		"readOnlyHint":    true,
		"destructiveHint": false,
		"idempotentHint":  true,
		"openWorldHint":   false,
	}
}
