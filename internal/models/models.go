// Package models defines the data objects shared across scm packages.
package models

import "fmt"

// BackendKind names one external version-control tool.
type BackendKind string

// Supported backends.
const (
	BackendCVS BackendKind = "cvs"
	BackendSVN BackendKind = "svn"
	BackendGit BackendKind = "git"
)

// Backends lists every supported backend in detection order.
var Backends = []BackendKind{BackendCVS, BackendSVN, BackendGit}

// ParseBackendKind converts user input into a BackendKind.
func ParseBackendKind(name string) (BackendKind, error) {
	switch BackendKind(name) {
	case BackendCVS, BackendSVN, BackendGit:
		return BackendKind(name), nil
	case "subversion":
		return BackendSVN, nil
	default:
		return "", fmt.Errorf("unknown backend %q", name)
	}
}

// Operation is one request a backend knows how to turn into an argument vector.
type Operation string

// Operations understood by every backend.
const (
	OpAdd      Operation = "add"
	OpCheckout Operation = "checkout"
	OpCommit   Operation = "commit"
	OpDiff     Operation = "diff"
	OpHistory  Operation = "history"
	OpRemove   Operation = "remove"
	OpStatus   Operation = "status"
	OpUpdate   Operation = "update"
	OpRevert   Operation = "revert"
	OpFetch    Operation = "fetch"
)

// ReadOnly reports whether the operation leaves the working copy untouched.
// Read-only operations may run concurrently on the same path.
func (o Operation) ReadOnly() bool {
	switch o {
	case OpStatus, OpHistory, OpDiff, OpFetch:
		return true
	}
	return false
}

// PathType restricts which entries a directory walk returns.
type PathType int

// Path type filters.
const (
	PathAny PathType = iota
	PathFile
	PathDirectory
)

// PathGroup is a working directory plus paths relative to it, the unit of
// work handed to one subprocess invocation. An empty Files list means the
// whole directory.
type PathGroup struct {
	Root  string
	Files []string
}

// StatusKind is the normalized version-control state of a file.
type StatusKind string

// Status kinds.
const (
	StatusUpToDate StatusKind = "uptodate"
	StatusModified StatusKind = "modified"
	StatusAdded    StatusKind = "added"
	StatusDeleted  StatusKind = "deleted"
	StatusConflict StatusKind = "conflict"
)

// StatusRecord is per-file status scraped from a backend's status output.
// Optional fields are empty when the tool did not report them.
type StatusRecord struct {
	Path      string     `json:"path"`
	Status    StatusKind `json:"status"`
	Revision  string     `json:"revision,omitempty"`
	RRevision string     `json:"rrevision,omitempty"`
	Tag       string     `json:"tag,omitempty"`
	Date      string     `json:"date,omitempty"`
	Options   string     `json:"options,omitempty"`
}

// HistoryRecord is one revision of one file.
type HistoryRecord struct {
	Path     string `json:"path,omitempty"`
	Revision string `json:"revision"`
	Date     string `json:"date"`
	Author   string `json:"author"`
	State    string `json:"state,omitempty"`
	Comment  string `json:"comment"`
}
