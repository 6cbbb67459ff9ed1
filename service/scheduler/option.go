package scheduler

// TaskOption customises task registration.
type TaskOption func(*taskOptions)

type taskOptions struct {
	onceKey          string
	startImmediately bool
}

// WithOnceKey makes registration idempotent: while a task with the same key
// is pending in the target sub-queue, further registrations are dropped.
func WithOnceKey(key string) TaskOption {
	return func(o *taskOptions) {
		o.onceKey = key
	}
}

// WithStartImmediately begins draining in the background when the scheduler
// is still idle. A paused or ended scheduler is left alone so callers stay
// in control of resuming after a failure.
func WithStartImmediately() TaskOption {
	return func(o *taskOptions) {
		o.startImmediately = true
	}
}

// InsertOption customises sub-queue insertion.
type InsertOption func(*insertOptions)

type insertOptions struct {
	anchor string
	before bool
}

// WithBefore splices the new sub-queue immediately before the named one.
func WithBefore(name string) InsertOption {
	return func(o *insertOptions) {
		o.anchor = name
		o.before = true
	}
}

// WithAfter splices the new sub-queue immediately after the named one.
func WithAfter(name string) InsertOption {
	return func(o *insertOptions) {
		o.anchor = name
		o.before = false
	}
}
