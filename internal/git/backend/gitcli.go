package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLI opens working copies by running the git executable.
type CLI struct {
	opts Options
	env  []string
}

func NewCLI(opts Options) *CLI {
	return &CLI{opts: opts, env: gitEnv(os.Environ())}
}

func (c *CLI) Name() string { return KindCLI }

// gitEnv disables every mechanism that would pause for credentials, so an
// authentication requirement surfaces as a failed command.
func gitEnv(base []string) []string {
	env := make([]string, 0, len(base)+2)
	hasSSHCommand := false
	for _, kv := range base {
		if strings.HasPrefix(kv, "GIT_TERMINAL_PROMPT=") {
			continue
		}
		if strings.HasPrefix(kv, "GIT_SSH_COMMAND=") {
			hasSSHCommand = true
		}
		env = append(env, kv)
	}
	env = append(env, "GIT_TERMINAL_PROMPT=0")
	if !hasSSHCommand {
		env = append(env, "GIT_SSH_COMMAND=ssh -o BatchMode=yes")
	}
	return env
}

// Open clones url at depth 1 with all branches into a fresh temporary
// directory. Nothing is left on disk when the clone fails.
func (c *CLI) Open(ctx context.Context, url string) (WorkingCopy, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	tmp, err := os.MkdirTemp(c.opts.TempDir, tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("create working copy directory: %w", err)
	}
	wc := &CLICopy{cli: c, url: url, tmpdir: tmp, path: filepath.Join(tmp, cloneDir)}
	_, err = c.runGitCommand(ctx, url, tmp,
		"clone", "--depth=1", "--quiet", "--no-single-branch", url, cloneDir)
	if err != nil {
		if cerr := wc.Close(); cerr != nil {
			c.opts.logger().Warn("cleanup failed clone", slog.String("path", tmp), slog.Any("error", cerr))
		}
		return nil, err
	}
	c.opts.logger().Debug("cloned repository", slog.String("url", url), slog.String("path", wc.path))
	return wc, nil
}

func (c *CLI) runGitCommand(ctx context.Context, url, dir string, args ...string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("working copy directory not set")
	}
	ctx, cancel := c.opts.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = c.env
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	command := "git " + strings.Join(args, " ")
	output := flattenOutput(out.String())
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		c.opts.logger().Debug("git command failed",
			slog.String("command", command),
			slog.Int("exit_code", code),
			slog.String("output", output),
		)
		return "", &AccessError{URL: url, Command: command, ExitCode: code, Output: output, Err: err}
	}
	c.opts.logger().Debug("git command completed",
		slog.String("command", command),
		slog.Int("exit_code", 0),
		slog.String("output", output),
	)
	return out.String(), nil
}
