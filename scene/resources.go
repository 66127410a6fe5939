package scene

import (
	"log/slog"

	"github.com/milk9111/propsim/script"
)

// Resources are the caches a loaded scene shares. They live as long as the
// scene and are dropped with it on reload.
type Resources struct {
	Scripts *script.Cache
}

func NewResources(src Source, logger *slog.Logger) *Resources {
	return &Resources{Scripts: script.NewCache(src.LoadScript, logger)}
}

func (r *Resources) Close() {
	if r == nil || r.Scripts == nil {
		return
	}
	r.Scripts.Reset()
}
