package cmd

// Options holds the shared command-line options for the scout CLI.
type Options struct {
	Format    string
	Filter    string
	Language  string
	Sort      string
	Backend   string
	Pages     int   // primary pages to load for a one-shot search
	NoCounts  bool  // skip waiting for issue counts
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Issue listing options
	Since string // only show issues opened within this window

	// Serve options
	Listen     string
	SessionTTL string

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Pages:      1,
		SessionTTL: "30m",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithFilter sets the issue category to search for.
func WithFilter(filter string) Option {
	return func(o *Options) {
		o.Filter = filter
	}
}

// WithLanguage sets the language qualifier.
func WithLanguage(language string) Option {
	return func(o *Options) {
		o.Language = language
	}
}

// WithSort sets the result order (relevance, stars).
func WithSort(sort string) Option {
	return func(o *Options) {
		o.Sort = sort
	}
}

// WithBackend overrides the configured backend (api, github).
func WithBackend(backend string) Option {
	return func(o *Options) {
		o.Backend = backend
	}
}

// WithPages sets how many primary pages a one-shot search loads.
func WithPages(n int) Option {
	return func(o *Options) {
		o.Pages = n
	}
}

// WithNoCounts skips waiting for issue counts.
func WithNoCounts(skip bool) Option {
	return func(o *Options) {
		o.NoCounts = skip
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithSince limits issue listings to issues opened within the window (e.g., 30d).
func WithSince(since string) Option {
	return func(o *Options) {
		o.Since = since
	}
}

// WithListen sets the address scout serve binds.
func WithListen(addr string) Option {
	return func(o *Options) {
		o.Listen = addr
	}
}

// WithSessionTTL sets how long scout serve keeps idle sessions.
func WithSessionTTL(ttl string) Option {
	return func(o *Options) {
		o.SessionTTL = ttl
	}
}

// WithCPUProfile sets the CPU profile output file.
func WithCPUProfile(path string) Option {
	return func(o *Options) {
		o.CPUProfile = path
	}
}

// WithMemProfile sets the memory profile output file.
func WithMemProfile(path string) Option {
	return func(o *Options) {
		o.MemProfile = path
	}
}

// WithTrace sets the execution trace output file.
func WithTrace(path string) Option {
	return func(o *Options) {
		o.Trace = path
	}
}
