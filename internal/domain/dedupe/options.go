package dedupe

// Option applies a configuration option to a Deduper.
type Option func(*Deduper)

// WithCapacity pre-sizes the id set.
func WithCapacity(n int) Option {
	return func(d *Deduper) {
		if n > 0 {
			d.hint = n
		}
	}
}
