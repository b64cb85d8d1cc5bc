package config

import (
	"os"
	"strconv"
)

// FromEnv populates an AppConfig from ATZENTIS_* environment variables,
// matching the env-var-driven loading style of deespec's config layer.
func FromEnv() *AppConfig {
	return New(
		os.Getenv("ATZENTIS_HOME"),
		os.Getenv("ATZENTIS_SPECS_ROOT"),
		envOr("ATZENTIS_DB_PATH", ".atzentis/session.db"),
		os.Getenv("ATZENTIS_AGENT_BIN"),
		os.Getenv("ATZENTIS_AGENT_VARIANT"),
		os.Getenv("ATZENTIS_COMPLETION_TOKEN"),
		envInt64("ATZENTIS_TIMEOUT_MS", 0),
		envInt("ATZENTIS_MAX_RETRIES", 0),
		envInt("ATZENTIS_MAX_PARALLEL", 0),
		envInt("ATZENTIS_OUTER_RETRIES", 0),
		envBool("ATZENTIS_FAST"),
		os.Getenv("ATZENTIS_LINT_CMD"),
		os.Getenv("ATZENTIS_TEST_CMD"),
		os.Getenv("ATZENTIS_BASE_BRANCH"),
		os.Getenv("ATZENTIS_WORKTREE_DIR"),
		os.Getenv("ATZENTIS_ARCHIVE_S3_BUCKET"),
		envOr("ATZENTIS_PR_TOOL", "gh"),
		os.Getenv("ATZENTIS_HOOK_BEFORE_PHASE"),
		os.Getenv("ATZENTIS_HOOK_BEFORE_TASK"),
		os.Getenv("ATZENTIS_HOOK_AFTER_TASK"),
		os.Getenv("ATZENTIS_HOOK_ON_SUCCESS"),
		os.Getenv("ATZENTIS_HOOK_ON_ERROR"),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
