// Package basic provides the built-in tool catalog: echo, add_numbers,
// now and word_count.
package basic

import "github.com/toolgate/toolgate/internal/tools"

func GetTools() []tools.Tool {
	return []tools.Tool{
		NewEchoTool(),
		NewAddNumbersTool(),
		NewNowTool(),
		NewWordCountTool(),
	}
}

// RegisterAll populates the registry with the built-in catalog.
func RegisterAll(registry *tools.Registry) error {
	for _, tool := range GetTools() {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
