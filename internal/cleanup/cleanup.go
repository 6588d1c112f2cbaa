package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"posbackend/internal/config"
	"posbackend/internal/logger"
)

const (
	cleanupHour      = 2 // 2 AM
	maxRemovalPerRun = 50
)

// StartCleanupRoutine starts the daily sweep of dated log files.
func StartCleanupRoutine() {
	go func() {
		logger.LogInfo("Cleanup routine started - will run daily at %d:00 AM", cleanupHour)

		for {
			// Calculate the next run time
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), cleanupHour, 0, 0, 0, now.Location())

			// If it's past the hour today, schedule for tomorrow
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}

			sleepDuration := next.Sub(now)
			logger.LogInfo("Next cleanup scheduled for %v (in %v)", next.Format("2006-01-02 15:04:05"), sleepDuration)

			time.Sleep(sleepDuration)

			runCleanup()
		}
	}()
}

// runCleanup removes dated log files older than the configured retention.
func runCleanup() {
	retention := time.Duration(config.LogRetentionDays) * 24 * time.Hour
	cutoff := time.Now().Add(-retention)

	logger.LogInfo("Starting log cleanup, removing files older than %v (before %v)",
		retention, cutoff.Format("2006-01-02"))

	removed, err := removeOldLogs(config.LogsDirectory(), cutoff)
	if err != nil {
		logger.LogError("Log cleanup failed: %v", err)
		return
	}

	if removed == 0 {
		logger.LogInfo("Log cleanup completed - nothing to remove")
	} else {
		logger.LogInfo("Log cleanup completed - removed %d old log files", removed)
	}
}

func removeOldLogs(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	current := filepath.Base(logger.GetLogFilePath())
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		if entry.Name() == current {
			continue
		}
		if removed >= maxRemovalPerRun {
			break
		}

		fileInfo, err := entry.Info()
		if err != nil {
			continue
		}
		if fileInfo.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logger.LogWarn("Failed to remove old log file %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	return removed, nil
}
