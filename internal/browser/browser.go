// Package browser opens URLs and files with the platform's default handler.
package browser

import (
	"context"
	"fmt"
	"runtime"

	"darkrift/internal/cache"
)

// Opener launches the default handler for a target.
type Opener struct {
	Runner cache.Runner
	GOOS   string
}

// New returns an Opener for the current platform.
func New(runner cache.Runner) *Opener {
	if runner == nil {
		runner = cache.CmdRunner{}
	}
	return &Opener{Runner: runner, GOOS: runtime.GOOS}
}

// Command returns the program and arguments used to open target.
func (o *Opener) Command(target string) (string, []string) {
	switch o.GOOS {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	case "darwin":
		return "open", []string{target}
	default:
		return "xdg-open", []string{target}
	}
}

// Open hands target to the platform opener. On Windows a failure is retried
// through explorer.exe, which copes with a misregistered default browser.
func (o *Opener) Open(ctx context.Context, target string) error {
	name, args := o.Command(target)
	_, err := o.Runner.Run(ctx, name, args, cache.RunOptions{})
	if err == nil {
		return nil
	}
	if o.GOOS == "windows" {
		if _, retryErr := o.Runner.Run(ctx, "explorer.exe", []string{target}, cache.RunOptions{}); retryErr == nil {
			return nil
		}
	}
	return fmt.Errorf("open %s: %w", target, err)
}
