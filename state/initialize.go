package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"twc/design"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// LoadDesign resolves design configuration: path overrides configured design
// file, embedded defaults are used when both are empty. Loaded file is added
// to debug report.
func (e *LocalEnv) LoadDesign(path string) (*design.Configuration, error) {
	if e.Design != nil && path == "" {
		return e.Design, nil
	}
	if path == "" && e.Cfg != nil {
		path = e.Cfg.Build.DesignPath
	}

	user := &design.UserConfig{}
	if path != "" {
		var err error
		if user, err = design.LoadFile(path); err != nil {
			return nil, err
		}
		if data, err := os.ReadFile(path); err == nil {
			e.Rpt.StoreData("design/"+filepath.Base(path), data)
		}
	}
	cfg, err := design.Resolve(user)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve design configuration: %w", err)
	}
	if e.Log != nil {
		e.Log.Debug("Design configuration resolved",
			zap.String("file", path),
			zap.Int("screens", len(cfg.Screens())),
			zap.Strings("plugins", cfg.PluginFiles()))
	}
	e.Design = cfg
	return cfg, nil
}
