package tabular

import (
	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// withLock holds an advisory lock on path+".lock" while fn runs.
func withLock(path string, fn func() error) error {
	lk := flock.New(path + ".lock")
	if err := lk.Lock(); err != nil {
		return eris.Wrapf(err, "tabular: lock %s", path)
	}
	defer func() {
		if err := lk.Unlock(); err != nil {
			zap.L().Warn("tabular: unlock failed", zap.String("path", path), zap.Error(err))
		}
	}()
	return fn()
}
