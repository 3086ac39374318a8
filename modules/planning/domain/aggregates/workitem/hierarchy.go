package workitem

import "fmt"

// containment is the fixed parent-to-child table of the planning
// hierarchy. Subtasks contain nothing.
var containment = map[Type]Type{
	TypeObjective:  TypeStrategy,
	TypeStrategy:   TypeInitiative,
	TypeInitiative: TypeTask,
	TypeTask:       TypeSubtask,
}

// IsTopLevel reports whether items of this type may exist without a
// parent for any principal.
func IsTopLevel(t Type) bool {
	return t == TypeObjective
}

// CanContain reports whether a parent of parentType may contain a child
// of childType.
func CanContain(parentType, childType Type) bool {
	allowed, ok := containment[parentType]
	return ok && allowed == childType
}

// ValidateHierarchy checks the parent/child type pair against the
// containment table. It is pure and safe for concurrent use.
func ValidateHierarchy(parentType, childType Type) error {
	if CanContain(parentType, childType) {
		return nil
	}
	allowed, ok := containment[parentType]
	if !ok {
		return ErrInvalidHierarchy.WithMessage(
			fmt.Sprintf("a %s cannot contain children, so it cannot contain a %s", parentType, childType),
		)
	}
	return ErrInvalidHierarchy.WithMessage(
		fmt.Sprintf("a %s can only contain a %s, not a %s", parentType, allowed, childType),
	)
}
