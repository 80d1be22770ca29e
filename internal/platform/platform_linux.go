//go:build linux

package platform

import (
	"os/exec"
	"path/filepath"
)

func openCommand(path string) command {
	return command{"xdg-open", []string{path}}
}

// revealCommand prefers the freedesktop FileManager1 interface, which
// selects the item; plain xdg-open can only show the parent folder.
func revealCommand(path string) command {
	if _, err := exec.LookPath("dbus-send"); err == nil {
		return command{"dbus-send", []string{
			"--session", "--dest=org.freedesktop.FileManager1", "--type=method_call",
			"/org/freedesktop/FileManager1", "org.freedesktop.FileManager1.ShowItems",
			"array:string:file://" + path, "string:",
		}}
	}
	return command{"xdg-open", []string{filepath.Dir(path)}}
}

func pickerCommands() []command {
	return []command{
		{"zenity", []string{"--file-selection", "--directory", "--title=Add Folder"}},
		{"kdialog", []string{"--getexistingdirectory", "--title", "Add Folder"}},
	}
}
