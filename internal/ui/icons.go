package ui

import (
	"os"
	"time"

	devicons "github.com/epilande/go-devicons"
)

type iconFileInfo struct {
	name  string
	isDir bool
}

func (i iconFileInfo) Name() string { return i.name }

func (i iconFileInfo) Size() int64 { return 0 }

func (i iconFileInfo) Mode() os.FileMode {
	if i.isDir {
		return os.ModeDir | 0o755
	}
	return 0
}

func (i iconFileInfo) ModTime() time.Time { return time.Time{} }

func (i iconFileInfo) IsDir() bool { return i.isDir }

func (i iconFileInfo) Sys() any { return nil }

// deviconForName returns the nerd-font glyph for a file name.
func deviconForName(name string, isDir bool) string {
	if name == "" {
		return ""
	}
	return devicons.IconForInfo(iconFileInfo{name: name, isDir: isDir}).Icon
}

func iconWithSpace(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}
