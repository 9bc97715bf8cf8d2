package consent

// Option configures a MemoryRegistry.
type Option func(*MemoryRegistry)

// WithPrompter sets the prompter used by Request. Nil prompters are
// ignored.
func WithPrompter(p Prompter) Option {
	return func(r *MemoryRegistry) {
		if p != nil {
			r.prompter = p
		}
	}
}
