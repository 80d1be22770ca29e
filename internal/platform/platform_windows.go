//go:build windows

package platform

func openCommand(path string) command {
	// 'cmd /c start "" "path"' is the standard way to launch files in Windows
	return command{"cmd", []string{"/c", "start", "", path}}
}

func revealCommand(path string) command {
	return command{"explorer", []string{"/select," + path}}
}

const pickScript = `Add-Type -AssemblyName System.Windows.Forms
$d = New-Object System.Windows.Forms.FolderBrowserDialog
$d.Description = 'Add Folder'
if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath } else { exit 1 }`

func pickerCommands() []command {
	return []command{
		{"powershell", []string{"-NoProfile", "-STA", "-Command", pickScript}},
	}
}
