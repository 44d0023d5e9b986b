package gene

// PlaceholderID is the identity of the built-in placeholder
const PlaceholderID = "00000000-0000-0000-0000-000000000000"

// Placeholder returns a no-op passive used when an identity cannot be resolved
// A slot whose active binds to it still has content but executes nothing
func Placeholder() *Definition {
	return &Definition{
		ID:          PlaceholderID,
		Name:        "Missing Gene",
		Description: "This gene could not be loaded. It may have been deleted or renamed.",
		Tier:        0,
		Version:     0,
		Role:        RolePassive,
		Passive: &PassiveSpec{
			BaseValue: 1,
			MaxStacks: -1,
			Apply:     func(*PassiveContext) {},
		},
		Describe: func(*Instance) string { return "Missing Gene" },
		Fallback: true,
	}
}
