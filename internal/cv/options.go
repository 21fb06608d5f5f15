package cv

// Kernel engine options
type KernelOption func(*KernelEngine)

// WithMethod sets the matching kernel
func WithMethod(m MatchMethod) KernelOption {
	return func(e *KernelEngine) {
		e.method = m
	}
}

// WithMaxCandidates caps how many candidates a single scan may report.
// Zero means unlimited.
func WithMaxCandidates(n int) KernelOption {
	return func(e *KernelEngine) {
		e.maxCandidates = n
	}
}
