//go:build !linux && !darwin && !windows

package platform

func openCommand(path string) command {
	return command{"xdg-open", []string{path}}
}

func revealCommand(path string) command {
	return command{"xdg-open", []string{path}}
}

func pickerCommands() []command { return nil }
