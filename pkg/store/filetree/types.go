package filetree

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags the two variants of a file tree object.
type Kind string

const (
	// KindTree is an interior directory node holding ordered children
	KindTree Kind = "tree"

	// KindRecord is a leaf file entry holding ordered versions
	KindRecord Kind = "record"
)

func (k Kind) Valid() bool {
	return k == KindTree || k == KindRecord
}

// Scope is the per-node settings object that owns one file tree.
//
// RootID is empty until the first path in the scope is materialized. A scope
// never owns more than one root.
type Scope struct {
	ID string `json:"id"`

	// OwnerNodeID identifies the node (project) owning this scope.
	// It is carried for logging and audit context only.
	OwnerNodeID string `json:"owner_node_id"`

	RootID  string    `json:"root_id,omitempty"`
	Created time.Time `json:"created"`
}

// NewScope returns a scope with a fresh ID and no root.
func NewScope(ownerNodeID string) *Scope {
	return &Scope{
		ID:          uuid.NewString(),
		OwnerNodeID: ownerNodeID,
		Created:     time.Now().UTC(),
	}
}

// HasRoot reports whether the scope's root tree has been materialized.
func (s *Scope) HasRoot() bool {
	return s.RootID != ""
}

// Object is a node of a scope's file tree.
//
// It is a tagged variant: Children is only meaningful for KindTree, Versions
// and IsDeleted only for KindRecord. Each object is unique per (ScopeID, Path).
type Object struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Path    string    `json:"path"`
	ScopeID string    `json:"scope_id"`
	Created time.Time `json:"created"`

	// Children holds child object IDs in insertion order (trees only)
	Children []string `json:"children,omitempty"`

	// Versions holds version IDs, oldest first (records only)
	Versions []string `json:"versions,omitempty"`

	// IsDeleted is the soft-delete flag (records only)
	IsDeleted bool `json:"is_deleted,omitempty"`
}

// NewObject returns an unsaved object of kind at path in scopeID.
func NewObject(kind Kind, scopeID, p string) *Object {
	return &Object{
		ID:      uuid.NewString(),
		Kind:    kind,
		Path:    p,
		ScopeID: scopeID,
		Created: time.Now().UTC(),
	}
}

func (o *Object) IsTree() bool   { return o.Kind == KindTree }
func (o *Object) IsRecord() bool { return o.Kind == KindRecord }

// Name is the last path segment. The root tree has an empty name.
func (o *Object) Name() string {
	_, name := SplitPath(o.Path)
	return name
}

// Extension is the suffix of Name starting at its last dot, or "" when the
// name has no dot past its first character (".bashrc" has no extension).
func (o *Object) Extension() string {
	name := o.Name()
	ext := path.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

// LatestVersionID returns the ID of the newest version, or "".
func (o *Object) LatestVersionID() string {
	if len(o.Versions) == 0 {
		return ""
	}
	return o.Versions[len(o.Versions)-1]
}

// AppendChild links a child object to this tree once.
func (o *Object) AppendChild(id string) {
	if !slices.Contains(o.Children, id) {
		o.Children = append(o.Children, id)
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	c.Children = slices.Clone(o.Children)
	c.Versions = slices.Clone(o.Versions)
	return &c
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%s:/%s)", o.Kind, o.ScopeID, o.Path)
}

// GuidFile is a stable public identifier for a (node, path) pair.
type GuidFile struct {
	ID     string `json:"id"`
	NodeID string `json:"node_id"`
	Path   string `json:"path"`
}

// NewGuidFile returns an unsaved GUID file for nodeID and a normalized path.
func NewGuidFile(nodeID, p string) *GuidFile {
	return &GuidFile{
		ID:     uuid.NewString(),
		NodeID: nodeID,
		Path:   p,
	}
}

// FileURL is the node-relative URL of the file.
func (g *GuidFile) FileURL() string {
	return "osfstorage/files/" + strings.TrimPrefix(g.Path, "/")
}

// DownloadPath is the public download path of version n (1-based).
func (g *GuidFile) DownloadPath(n int) string {
	return fmt.Sprintf("/%s/download/?version=%d", g.ID, n)
}
