package service

import (
	"context"
	"time"

	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
)

// MonsterProvider fetches live data from Metamob
type MonsterProvider interface {
	FetchMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, error)
	FetchProfile(ctx context.Context, username string) (models.UserProfile, error)
}

// ResponseCache stores provider responses between refreshes
type ResponseCache interface {
	GetMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, bool, error)
	SetMonsters(ctx context.Context, username string, onlyArchi bool, records []models.ItemRecord) error
	GetProfile(ctx context.Context, username string) (models.UserProfile, bool, error)
	SetProfile(ctx context.Context, username string, profile models.UserProfile) error
}

// SnapshotStore reads and writes the local JSON stores
type SnapshotStore interface {
	SnapshotFiles
	SaveSnapshot(path string, snapshot *models.Snapshot) error
	SaveUserDirectory(path string, directory *models.UserDirectory) error
}

// RefreshOptions controls a refresh run
type RefreshOptions struct {
	Users      []string // defaults to every user of the directory
	OutputPath string   // defaults to the configured file
	OnlyArchi  bool
	SkipCache  bool
}

// RefreshResult summarizes a refresh run
type RefreshResult struct {
	Path     string        `json:"path"`
	Users    int           `json:"users"`
	Fetched  int           `json:"fetched"`
	Cached   int           `json:"cached"`
	Failed   []string      `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// RefreshService pulls monsters and profiles from Metamob into the local files
type RefreshService struct {
	provider MonsterProvider
	cache    ResponseCache
	files    SnapshotStore
	paths    config.FilesConfig
	metrics  *metrics.Registry
}

// NewRefreshService creates a new refresh service. cache may be nil.
func NewRefreshService(provider MonsterProvider, cache ResponseCache, files SnapshotStore, paths config.FilesConfig, m *metrics.Registry) *RefreshService {
	return &RefreshService{
		provider: provider,
		cache:    cache,
		files:    files,
		paths:    paths,
		metrics:  m,
	}
}

// RefreshMonsters fetches the monsters of every user and writes a new
// snapshot. A user whose fetch fails is stored with no data; the run
// continues with the next user.
func (s *RefreshService) RefreshMonsters(ctx context.Context, opts RefreshOptions) (*RefreshResult, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).WithField("operation", "refresh_monsters")

	path := opts.OutputPath
	if path == "" {
		path = s.paths.MonstersFile
	}

	users := opts.Users
	if len(users) == 0 {
		users = s.localUsers(ctx)
	}

	result := &RefreshResult{Path: path, Users: len(users), Failed: []string{}}
	snapshot := models.NewSnapshot()

	for i, user := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Infof("Processing user: %s - %d/%d", user, i+1, len(users))

		records, cached, err := s.monsters(ctx, user, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WithField("user", user).WithError(err).Error("Failed to fetch monsters")
			snapshot.Set(user, nil)
			result.Failed = append(result.Failed, user)
			continue
		}
		if cached {
			result.Cached++
		} else {
			result.Fetched++
		}
		snapshot.Set(user, records)
	}

	if err := s.files.SaveSnapshot(path, snapshot); err != nil {
		return nil, apperrors.NewInternalError("failed to store snapshot", err)
	}

	result.Duration = time.Since(start)
	logger.WithFields(map[string]interface{}{
		"path":    path,
		"fetched": result.Fetched,
		"cached":  result.Cached,
		"failed":  len(result.Failed),
	}).Info("Aggregated monster data stored")
	return result, nil
}

// RefreshUsers updates the profile of every user in the directory. A
// failed fetch keeps the previous profile.
func (s *RefreshService) RefreshUsers(ctx context.Context, opts RefreshOptions) (*RefreshResult, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).WithField("operation", "refresh_users")

	path := opts.OutputPath
	if path == "" {
		path = s.paths.UsersFile
	}

	directory := s.directory(ctx, path)
	users := directory.Usernames()
	result := &RefreshResult{Path: path, Users: len(users), Failed: []string{}}

	for i, user := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		profile, cached, err := s.profile(ctx, user, opts.SkipCache)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WithField("user", user).WithError(err).Error("Failed to fetch profile")
			result.Failed = append(result.Failed, user)
			continue
		}
		if cached {
			result.Cached++
		} else {
			result.Fetched++
		}
		directory.Set(user, profile)
		logger.Infof("Updated data for user '%s' - %d/%d", user, i+1, len(users))
	}

	if err := s.files.SaveUserDirectory(path, directory); err != nil {
		return nil, apperrors.NewInternalError("failed to store user directory", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// AddUsers registers usernames in the directory with an empty profile and
// returns the ones that were not known yet
func (s *RefreshService) AddUsers(ctx context.Context, path string, usernames []string) ([]string, error) {
	if path == "" {
		path = s.paths.UsersFile
	}
	directory := s.directory(ctx, path)

	added := []string{}
	for _, u := range usernames {
		if u != "" && directory.Add(u) {
			added = append(added, u)
		}
	}
	if len(added) == 0 {
		logging.FromContext(ctx).Info("No new users to add")
		return added, nil
	}

	if err := s.files.SaveUserDirectory(path, directory); err != nil {
		return nil, apperrors.NewInternalError("failed to store user directory", err)
	}
	logging.FromContext(ctx).WithField("users", added).Info("Added new users")
	return added, nil
}

// directory loads the user directory, starting empty when the file is
// missing or unreadable
func (s *RefreshService) directory(ctx context.Context, path string) *models.UserDirectory {
	directory, err := s.files.LoadUserDirectory(path)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warnf("Starting from an empty user directory (%s)", path)
		return models.NewUserDirectory()
	}
	return directory
}

func (s *RefreshService) localUsers(ctx context.Context) []string {
	return s.directory(ctx, s.paths.UsersFile).Usernames()
}

func (s *RefreshService) monsters(ctx context.Context, user string, opts RefreshOptions) ([]models.ItemRecord, bool, error) {
	if s.cache != nil && !opts.SkipCache {
		records, found, err := s.cache.GetMonsters(ctx, user, opts.OnlyArchi)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Cache lookup failed")
		}
		s.metrics.ObserveCacheLookup("monsters", found)
		if found {
			return records, true, nil
		}
	}

	records, err := s.provider.FetchMonsters(ctx, user, opts.OnlyArchi)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.SetMonsters(ctx, user, opts.OnlyArchi, records); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Cache store failed")
		}
	}
	return records, false, nil
}

func (s *RefreshService) profile(ctx context.Context, user string, skipCache bool) (models.UserProfile, bool, error) {
	if s.cache != nil && !skipCache {
		profile, found, err := s.cache.GetProfile(ctx, user)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Cache lookup failed")
		}
		s.metrics.ObserveCacheLookup("profile", found)
		if found {
			return profile, true, nil
		}
	}

	profile, err := s.provider.FetchProfile(ctx, user)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, user, profile); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Cache store failed")
		}
	}
	return profile, false, nil
}
