package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.BackendMode)
	assert.False(t, cfg.Mock())
	assert.Equal(t, []string{"unisync.edu"}, cfg.Auth.ApprovedDomains)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxFileSizeBytes)
	assert.Equal(t, NotifyLog, cfg.Notifications.Transport)
}

func TestFromViperMockModeForcesLocalCollaborators(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{
		"BACKEND_MODE":     "MOCK",
		"NOTIFY_TRANSPORT": "smtp",
		"EVENTS_TRANSPORT": "redis",
		"CACHE_ENABLED":    true,
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Mock())
	assert.Equal(t, NotifyLog, cfg.Notifications.Transport)
	assert.Equal(t, EventsMemory, cfg.Events.Transport)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Database.RunMigrations)
}

func TestFromViperRejectsUnknownBackend(t *testing.T) {
	_, err := fromViper(newViper(map[string]interface{}{"BACKEND_MODE": "firebase"}))
	require.Error(t, err)
}

func TestFromViperNormalisesAdmissionLists(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{
		"AUTH_APPROVED_DOMAINS":       " Staff.Unisync.edu , unisync.edu ",
		"AUTH_AUTHORIZED_STUDENT_IDS": "cs2024001, cs2024002",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"staff.unisync.edu", "unisync.edu"}, cfg.Auth.ApprovedDomains)
	assert.Equal(t, []string{"CS2024001", "CS2024002"}, cfg.Auth.AuthorizedStudentIDs)
}
