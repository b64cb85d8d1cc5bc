// Package config provides read-only access to application configuration,
// abstracting the configuration source (environment variables, defaults)
// so the application layer doesn't depend on infrastructure details —
// grounded on internal/app/config/config.go's Config interface shape.
package config

import "time"

// Config is read-only application configuration.
type Config interface {
	Home() string              // project root (ATZENTIS_HOME, default ".")
	SpecsRoot() string         // phase directories root (ATZENTIS_SPECS_ROOT, default "specs")
	DBPath() string            // session store file (ATZENTIS_DB_PATH)
	AgentBin() string          // agent subprocess binary (ATZENTIS_AGENT_BIN)
	AgentVariant() string      // registered engine variant name (ATZENTIS_AGENT_VARIANT)
	CompletionToken() string   // completion token substring (ATZENTIS_COMPLETION_TOKEN)
	TimeoutMs() int64          // agent execution timeout (ATZENTIS_TIMEOUT_MS)
	Timeout() time.Duration    // TimeoutMs as a Duration
	MaxRetries() int           // engine inner-retry budget (ATZENTIS_MAX_RETRIES)
	MaxParallel() int          // wave concurrency bound (ATZENTIS_MAX_PARALLEL)
	OuterRetries() int         // executor outer-retry budget (ATZENTIS_OUTER_RETRIES)
	FastMode() bool            // skip lint/test validation (ATZENTIS_FAST)
	LintCommand() string       // validation lint command (ATZENTIS_LINT_CMD)
	TestCommand() string       // validation test command (ATZENTIS_TEST_CMD)
	BaseBranch() string        // worktree base branch (ATZENTIS_BASE_BRANCH)
	WorktreeBaseDir() string   // worktree root directory (ATZENTIS_WORKTREE_DIR)
	ArchiveS3Bucket() string   // optional checkpoint archive bucket (ATZENTIS_ARCHIVE_S3_BUCKET)
	PRTool() string            // PR creation tool binary, e.g. "gh" (ATZENTIS_PR_TOOL)

	HookBeforePhase() string // shell command (ATZENTIS_HOOK_BEFORE_PHASE)
	HookBeforeTask() string  // shell command (ATZENTIS_HOOK_BEFORE_TASK)
	HookAfterTask() string   // shell command (ATZENTIS_HOOK_AFTER_TASK)
	HookOnSuccess() string   // shell command (ATZENTIS_HOOK_ON_SUCCESS)
	HookOnError() string     // shell command (ATZENTIS_HOOK_ON_ERROR)
}

// AppConfig is the concrete Config implementation, populated once at
// startup and threaded through the DI container.
type AppConfig struct {
	home            string
	specsRoot       string
	dbPath          string
	agentBin        string
	agentVariant    string
	completionToken string
	timeoutMs       int64
	maxRetries      int
	maxParallel     int
	outerRetries    int
	fastMode        bool
	lintCommand     string
	testCommand     string
	baseBranch      string
	worktreeBaseDir string
	archiveS3Bucket string
	prTool          string

	hookBeforePhase string
	hookBeforeTask  string
	hookAfterTask   string
	hookOnSuccess   string
	hookOnError     string
}

func (c *AppConfig) Home() string            { return c.home }
func (c *AppConfig) SpecsRoot() string       { return c.specsRoot }
func (c *AppConfig) DBPath() string          { return c.dbPath }
func (c *AppConfig) AgentBin() string        { return c.agentBin }
func (c *AppConfig) AgentVariant() string    { return c.agentVariant }
func (c *AppConfig) CompletionToken() string { return c.completionToken }
func (c *AppConfig) TimeoutMs() int64        { return c.timeoutMs }
func (c *AppConfig) Timeout() time.Duration  { return time.Duration(c.timeoutMs) * time.Millisecond }
func (c *AppConfig) MaxRetries() int         { return c.maxRetries }
func (c *AppConfig) MaxParallel() int        { return c.maxParallel }
func (c *AppConfig) OuterRetries() int       { return c.outerRetries }
func (c *AppConfig) FastMode() bool          { return c.fastMode }
func (c *AppConfig) LintCommand() string     { return c.lintCommand }
func (c *AppConfig) TestCommand() string     { return c.testCommand }
func (c *AppConfig) BaseBranch() string      { return c.baseBranch }
func (c *AppConfig) WorktreeBaseDir() string { return c.worktreeBaseDir }
func (c *AppConfig) ArchiveS3Bucket() string { return c.archiveS3Bucket }
func (c *AppConfig) PRTool() string          { return c.prTool }

func (c *AppConfig) HookBeforePhase() string { return c.hookBeforePhase }
func (c *AppConfig) HookBeforeTask() string  { return c.hookBeforeTask }
func (c *AppConfig) HookAfterTask() string   { return c.hookAfterTask }
func (c *AppConfig) HookOnSuccess() string   { return c.hookOnSuccess }
func (c *AppConfig) HookOnError() string     { return c.hookOnError }

// WithHooks returns a copy of c with its hook commands replaced, used by
// the CLI layer to apply --before-phase/--before-task/etc. flags on top
// of whatever ATZENTIS_HOOK_* environment defaults FromEnv loaded.
func (c *AppConfig) WithHooks(beforePhase, beforeTask, afterTask, onSuccess, onError string) *AppConfig {
	cp := *c
	if beforePhase != "" {
		cp.hookBeforePhase = beforePhase
	}
	if beforeTask != "" {
		cp.hookBeforeTask = beforeTask
	}
	if afterTask != "" {
		cp.hookAfterTask = afterTask
	}
	if onSuccess != "" {
		cp.hookOnSuccess = onSuccess
	}
	if onError != "" {
		cp.hookOnError = onError
	}
	return &cp
}

// defaults mirror spec.md's stated defaults.
const (
	DefaultTimeoutMs       = 600_000
	DefaultMaxRetries      = 2
	DefaultMaxParallel     = 3
	DefaultOuterRetries    = 2
	DefaultCompletionToken = "<promise>COMPLETE</promise>"
)

// New builds an AppConfig from explicit values; zero values fall back
// to the documented defaults.
func New(home, specsRoot, dbPath, agentBin, agentVariant, completionToken string,
	timeoutMs int64, maxRetries, maxParallel, outerRetries int, fastMode bool,
	lintCommand, testCommand, baseBranch, worktreeBaseDir, archiveS3Bucket, prTool string,
	hookBeforePhase, hookBeforeTask, hookAfterTask, hookOnSuccess, hookOnError string,
) *AppConfig {
	if home == "" {
		home = "."
	}
	if specsRoot == "" {
		specsRoot = "specs"
	}
	if completionToken == "" {
		completionToken = DefaultCompletionToken
	}
	if timeoutMs == 0 {
		timeoutMs = DefaultTimeoutMs
	}
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxParallel == 0 {
		maxParallel = DefaultMaxParallel
	}
	if outerRetries == 0 {
		outerRetries = DefaultOuterRetries
	}
	if baseBranch == "" {
		baseBranch = "main"
	}
	if worktreeBaseDir == "" {
		worktreeBaseDir = ".atzentis/worktrees"
	}
	if agentVariant == "" {
		agentVariant = "subprocess"
	}
	return &AppConfig{
		home:            home,
		specsRoot:       specsRoot,
		dbPath:          dbPath,
		agentBin:        agentBin,
		agentVariant:    agentVariant,
		completionToken: completionToken,
		timeoutMs:       timeoutMs,
		maxRetries:      maxRetries,
		maxParallel:     maxParallel,
		outerRetries:    outerRetries,
		fastMode:        fastMode,
		lintCommand:     lintCommand,
		testCommand:     testCommand,
		baseBranch:      baseBranch,
		worktreeBaseDir: worktreeBaseDir,
		archiveS3Bucket: archiveS3Bucket,
		prTool:          prTool,
		hookBeforePhase: hookBeforePhase,
		hookBeforeTask:  hookBeforeTask,
		hookAfterTask:   hookAfterTask,
		hookOnSuccess:   hookOnSuccess,
		hookOnError:     hookOnError,
	}
}
