//go:build darwin

package platform

func openCommand(path string) command {
	return command{"open", []string{path}}
}

func revealCommand(path string) command {
	return command{"open", []string{"-R", path}}
}

// osascript exits 1 with error -128 when the dialog is cancelled.
func pickerCommands() []command {
	return []command{
		{"osascript", []string{"-e", `POSIX path of (choose folder with prompt "Add Folder")`}},
	}
}
