package domain

// CategoryType classifies a category node. The set is closed; type-specific
// behavior dispatches through the capability table below, never through
// per-type subtypes.
type CategoryType string

// Category types, broadest to narrowest.
const (
	TypeSubject CategoryType = "subject"
	TypeChapter CategoryType = "chapter"
	TypeTopic   CategoryType = "topic"
)

// TypeCapability describes what a category type is allowed to do structurally.
type TypeCapability struct {
	CanBeRoot  bool
	ChildTypes []CategoryType // types this type may contain; empty = leaf
}

// typeCapabilities is the capability table for the closed CategoryType set.
// Subjects may nest (a subject can group sub-subjects), which is what allows
// arbitrary-depth trees.
var typeCapabilities = map[CategoryType]TypeCapability{
	TypeSubject: {CanBeRoot: true, ChildTypes: []CategoryType{TypeSubject, TypeChapter}},
	TypeChapter: {CanBeRoot: false, ChildTypes: []CategoryType{TypeChapter, TypeTopic}},
	TypeTopic:   {CanBeRoot: false, ChildTypes: nil},
}

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	_, ok := typeCapabilities[t]
	return ok
}

// CanBeRoot reports whether a category of this type may sit at the tree root.
func (t CategoryType) CanBeRoot() bool {
	return typeCapabilities[t].CanBeRoot
}

// CanContain reports whether a category of this type may have a child of
// type child.
func (t CategoryType) CanContain(child CategoryType) bool {
	for _, ct := range typeCapabilities[t].ChildTypes {
		if ct == child {
			return true
		}
	}
	return false
}

// CanHaveChildren reports whether this type is allowed any children at all.
func (t CategoryType) CanHaveChildren() bool {
	return len(typeCapabilities[t].ChildTypes) > 0
}

// CategoryTypes returns all known types in display order.
func CategoryTypes() []CategoryType {
	return []CategoryType{TypeSubject, TypeChapter, TypeTopic}
}
