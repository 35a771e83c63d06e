package domain

import (
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// EntryKind distinguishes catalog entry variants
type EntryKind int

const (
	EntryKindFolder EntryKind = iota
	EntryKindFile
)

// CatalogEntry is the tagged union of Folder and File.
// Folder and File are the only implementations.
type CatalogEntry interface {
	// Kind returns the variant tag
	Kind() EntryKind

	// ID returns the opaque catalog identifier (prefix for folders, key for files)
	ID() string

	// DisplayName returns the human-readable name
	DisplayName() string

	isCatalogEntry()
}

// Folder is a folder-like grouping in the remote catalog
type Folder struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"` // Opaque hierarchical path issued by the catalog
}

func (f Folder) Kind() EntryKind     { return EntryKindFolder }
func (f Folder) ID() string          { return f.Prefix }
func (f Folder) DisplayName() string { return f.Name }
func (Folder) isCatalogEntry()       {}

// File is a single playable catalog object
type File struct {
	Key       string `json:"key"` // Opaque identifier, distinct from Name
	Name      string `json:"name"`
	SizeBytes int64  `json:"size"`
}

func (f File) Kind() EntryKind     { return EntryKindFile }
func (f File) ID() string          { return f.Key }
func (f File) DisplayName() string { return f.Name }
func (File) isCatalogEntry()       {}

// FormattedSize returns the size in human units ("" when unknown)
func (f File) FormattedSize() string {
	if f.SizeBytes <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(f.SizeBytes))
}

// Badge returns the upper-cased container extension, e.g. "MKV"
func (f File) Badge() string {
	name := f.Name
	if name == "" {
		name = f.Key
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToUpper(ext)
}

// CatalogListing is the content of one prefix. Each listing fully replaces
// the previous one; nothing is merged across requests.
type CatalogListing struct {
	Prefix  string   `json:"prefix"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// Entries returns folders followed by files, in listing order
func (l CatalogListing) Entries() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(l.Folders)+len(l.Files))
	for _, f := range l.Folders {
		entries = append(entries, f)
	}
	for _, f := range l.Files {
		entries = append(entries, f)
	}
	return entries
}

// IsEmpty returns true if the listing has no folders and no files
func (l CatalogListing) IsEmpty() bool {
	return len(l.Folders) == 0 && len(l.Files) == 0
}

// Breadcrumb is one step of the trail from root to the current folder.
// Root itself is represented by an empty trail.
type Breadcrumb struct {
	Label  string `json:"label"`
	Prefix string `json:"prefix"`
}
