package protocol

// PatchMode controls how a patched element fragment is merged into the
// client's document.
type PatchMode string

const (
	ModeOuter   PatchMode = "outer"   // Morph the entire target element
	ModeInner   PatchMode = "inner"   // Morph the target's children only
	ModeRemove  PatchMode = "remove"  // Remove the target element
	ModeReplace PatchMode = "replace" // Replace the target wholesale, no morph
	ModePrepend PatchMode = "prepend" // Insert before the target's first child
	ModeAppend  PatchMode = "append"  // Insert after the target's last child
	ModeBefore  PatchMode = "before"  // Insert before the target element
	ModeAfter   PatchMode = "after"   // Insert after the target element
)

// Valid reports whether the mode is a member of the closed patch mode set.
// Any other value is a configuration error at the point of use, never a
// silent fallback.
func (m PatchMode) Valid() bool {
	switch m {
	case ModeOuter, ModeInner, ModeRemove, ModeReplace, ModePrepend, ModeAppend, ModeBefore, ModeAfter:
		return true
	default:
		return false
	}
}

// String returns the wire value of the patch mode.
func (m PatchMode) String() string {
	return string(m)
}
