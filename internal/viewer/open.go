// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package viewer

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener hands a URL to the host's document viewer.
type Opener interface {
	Open(target string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(target string) error

// Open calls f.
func (f OpenerFunc) Open(target string) error { return f(target) }

// SystemOpener launches the platform's default handler for the URL.
type SystemOpener struct {
	// GOOS overrides runtime.GOOS; empty uses the running platform.
	GOOS string

	// run starts the command; nil uses exec.Command(...).Start.
	run func(name string, args ...string) error
}

// Open starts the platform opener and does not wait for it to exit.
func (o SystemOpener) Open(target string) error {
	name, args := openCommand(o.goos(), target)
	run := o.run
	if run == nil {
		run = func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		}
	}
	if err := run(name, args...); err != nil {
		return fmt.Errorf("launching %s: %w", name, err)
	}
	return nil
}

func (o SystemOpener) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}

func openCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}
