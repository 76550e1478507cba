package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/timelinekit/timeline/internal/seed"
	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/backup"
	"github.com/timelinekit/timeline/pkg/profile"
	"github.com/timelinekit/timeline/pkg/storage"
	"github.com/timelinekit/timeline/pkg/timeline"
)

// app is one session over the local store: both stores loaded, the storage
// file locked against other timeline processes.
type app struct {
	backend  *storage.SQLite
	lock     *utils.StorageLock
	timeline *timeline.Store
	profile  *profile.Store
	source   timeline.LoadSource
}

// openApp validates the seed before anything else so a broken seed never
// reaches the stores.
func openApp() (*app, error) {
	items, err := seed.Load(viper.GetString("seed.path"))
	if err != nil {
		return nil, err
	}

	path, err := utils.ResolveStoragePath(viper.GetString("storage.path"))
	if err != nil {
		return nil, err
	}

	lock, err := utils.NewStorageLock(path)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}

	backend, err := storage.Open(path)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening storage %s: %w", path, err)
	}

	a := &app{
		backend:  backend,
		lock:     lock,
		timeline: timeline.NewStore(backend),
		profile:  profile.NewStore(backend),
	}
	a.source = a.timeline.Load(items)
	a.profile.Load()
	utils.Log.Debugf("Opened %s (items from %s)", path, a.source)
	return a, nil
}

func (a *app) backup() *backup.Manager {
	return backup.NewManager(a.timeline, a.profile)
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		utils.Log.Warnf("Closing storage: %v", err)
	}
	if err := a.lock.Unlock(); err != nil {
		utils.Log.Warnf("Releasing storage lock: %v", err)
	}
}
