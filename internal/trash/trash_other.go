//go:build !linux && !darwin && !windows

package trash

func moveToTrash(string) error {
	return ErrUnavailable
}

func displayName() string {
	return "Trash"
}
