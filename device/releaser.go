package device

// Releaser collects release funcs for GPU objects as they are created and runs
// them in reverse order. Constructors defer Release so that any early return
// frees what was built so far, then hand the collected funcs to the finished
// object with Take.
type Releaser struct {
	funcs []func()
}

func (r *Releaser) Add(release func()) {
	r.funcs = append(r.funcs, release)
}

// Release runs every collected func, newest first. It is safe to call more than once.
func (r *Releaser) Release() {
	for i := len(r.funcs) - 1; i >= 0; i-- {
		r.funcs[i]()
	}
	r.funcs = nil
}

// Take moves the collected funcs into a new Releaser and leaves r empty.
func (r *Releaser) Take() *Releaser {
	taken := &Releaser{funcs: r.funcs}
	r.funcs = nil
	return taken
}
