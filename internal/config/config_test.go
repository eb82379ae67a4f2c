package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("NOTIFY_POLL_INTERVAL_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Notification.PollInterval() != 30*time.Second {
		t.Errorf("poll interval = %v", cfg.Notification.PollInterval())
	}
	if cfg.Storage.Driver != "local" || cfg.Storage.Bucket == "" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("NOTIFY_FEED_LIMIT", "10")
	t.Setenv("DEV_TEAMS", "org-1:t1:Platform, org-1:t2:Mobile ,")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != "s3" {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Notification.FeedLimit != 10 {
		t.Errorf("feed limit = %d", cfg.Notification.FeedLimit)
	}
	if len(cfg.App.DevTeams) != 2 || cfg.App.DevTeams[1] != "org-1:t2:Mobile" {
		t.Errorf("dev teams = %v", cfg.App.DevTeams)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "ftp")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
