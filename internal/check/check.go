// Package check runs preflight checks for a configured bridge.
package check

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result represents a single dependency check outcome.
type Result struct {
	Name     string
	Type     string
	Status   string // OK|MISSING|WARN
	Details  string
	Optional bool
}

// Checker defines an interface for running checks.
type Checker interface {
	Check(dep DepInput) Result
}

// DepInput describes one thing the bridge needs at runtime.
type DepInput struct {
	Name     string
	Type     string // env|url|listen|dirwrite
	Optional bool
	Hint     string
}

// Default maps dependency types to their checker.
var Default = map[string]Checker{
	"env":      EnvChecker{},
	"url":      URLChecker{Timeout: 5 * time.Second},
	"listen":   ListenChecker{},
	"dirwrite": DirWriteChecker{},
}

// Run checks every dep using the checkers in Default.
func Run(deps []DepInput) []Result {
	out := make([]Result, 0, len(deps))
	for _, d := range deps {
		c, ok := Default[d.Type]
		if !ok {
			out = append(out, Result{Name: d.Name, Type: d.Type, Status: "WARN", Details: "unknown check type", Optional: d.Optional})
			continue
		}
		res := c.Check(d)
		res.Optional = d.Optional
		out = append(out, res)
	}
	return out
}

// Failed reports whether any required dep is missing.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == "MISSING" && !r.Optional {
			return true
		}
	}
	return false
}

// EnvChecker requires a non-empty environment variable.
type EnvChecker struct{}

func (EnvChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	if strings.TrimSpace(os.Getenv(dep.Name)) == "" {
		res.Status = missingStatus(dep.Optional)
		res.Details = hinted("not set", dep.Hint)
	}
	return res
}

// URLChecker requires an HTTP endpoint to answer. Any status counts; only
// transport failures are reported.
type URLChecker struct {
	Timeout time.Duration
}

func (c URLChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Head(dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = hinted(err.Error(), dep.Hint)
		return res
	}
	_ = resp.Body.Close()
	res.Details = resp.Status
	return res
}

// ListenChecker requires an address to be free to bind.
type ListenChecker struct{}

func (ListenChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	ln, err := net.Listen("tcp", dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = hinted(err.Error(), dep.Hint)
		return res
	}
	_ = ln.Close()
	return res
}

// DirWriteChecker requires a directory that accepts new files. A directory
// that does not exist yet passes when its nearest existing ancestor is
// writable, since the store and log file create their parents.
type DirWriteChecker struct{}

func (DirWriteChecker) Check(dep DepInput) Result {
	res := Result{Name: dep.Name, Type: dep.Type, Status: "OK"}
	dir, err := nearestExisting(dep.Name)
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = hinted(err.Error(), dep.Hint)
		return res
	}
	f, err := os.CreateTemp(dir, ".codic-slack-check-*")
	if err != nil {
		res.Status = missingStatus(dep.Optional)
		res.Details = hinted(err.Error(), dep.Hint)
		return res
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	if dir != filepath.Clean(dep.Name) {
		res.Details = "will be created under " + dir
	}
	return res
}

func nearestExisting(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return dir, nil
		case err == nil:
			return "", fmt.Errorf("%s is not a directory", dir)
		case !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		dir = parent
	}
}

func hinted(details, hint string) string {
	if hint == "" {
		return details
	}
	return fmt.Sprintf("%s (%s)", details, hint)
}

func missingStatus(optional bool) string {
	if optional {
		return "WARN"
	}
	return "MISSING"
}
