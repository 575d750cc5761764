package negotiation

// Selection is the configuration both parties must agree on. The set of
// valid kits depends on the arena.
type Selection struct {
	Arena string `json:"arena,omitempty"`
	Kit   string `json:"kit,omitempty"`
}

// Complete reports whether both choices are made.
func (s Selection) Complete() bool {
	return s.Arena != "" && s.Kit != ""
}

// SelectionRules decides which arenas and kits exist.
type SelectionRules interface {
	ValidArena(arena string) bool
	ValidKit(arena, kit string) bool
}

func checkArena(rules SelectionRules, arena string) error {
	if arena == "" || !rules.ValidArena(arena) {
		return newError(CodeInvalidSelection, "unknown arena %q", arena)
	}
	return nil
}

func checkKit(rules SelectionRules, current Selection, kit string) error {
	if current.Arena == "" {
		return newError(CodeIncompleteSelection, "choose an arena before a kit")
	}
	if kit == "" || !rules.ValidKit(current.Arena, kit) {
		return newError(CodeInvalidSelection, "kit %q is not allowed in arena %q", kit, current.Arena)
	}
	return nil
}

// withArena returns the selection with the arena replaced. A kit that the
// new arena does not allow is dropped right away.
func (s Selection) withArena(rules SelectionRules, arena string) Selection {
	next := Selection{Arena: arena, Kit: s.Kit}
	if next.Kit != "" && !rules.ValidKit(arena, next.Kit) {
		next.Kit = ""
	}
	return next
}
