package attr

import "strings"

// Shared prefix under which every owner gets exactly one child container.
const (
	CustomData       = "custom_data"
	PluginComponents = "plugin_components"
)

// Path is an ordered list of segments addressing a node in a Tree.
// The empty path addresses the root.
type Path []string

// Raw builds a path from the given segments as-is.
func Raw(segments ...string) Path {
	p := make(Path, len(segments))
	copy(p, segments)
	return p
}

// OwnerRoot returns the container that holds all of an owner's keys.
func OwnerRoot(ownerID string) Path {
	return Path{CustomData, PluginComponents, ownerID}
}

// ForOwner returns the path of key inside ownerID's container.
func ForOwner(ownerID, key string) Path {
	return Path{CustomData, PluginComponents, ownerID, key}
}

// Append returns a new path with segs added; p is never modified.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Parent returns the path without its last segment, and that segment.
func (p Path) Parent() (Path, string) {
	if len(p) == 0 {
		return p, ""
	}
	return p[:len(p)-1], p[len(p)-1]
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

func (p Path) String() string {
	return strings.Join(p, ".")
}
