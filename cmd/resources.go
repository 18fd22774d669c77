package main

import (
	"sync"

	"go.uber.org/dig"
)

// resources collects release funcs for clients opened by container constructors.
type resources struct {
	mu       sync.Mutex
	releases []func()
}

func newResources() *resources {
	return &resources{}
}

// add registers release to run on close.
func (r *resources) add(release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releases = append(r.releases, release)
}

// close runs every release once, newest first.
func (r *resources) close() {
	r.mu.Lock()
	releases := r.releases
	r.releases = nil
	r.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// closeResources releases whatever the container opened.
func closeResources(container *dig.Container) {
	_ = container.Invoke(func(r *resources) {
		r.close()
	})
}
