// Package web holds the dashboard that the monitor serves next to its API.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// devModeEnv names the variable that makes the monitor serve the dashboard
// from the source tree, so that page edits show up without a rebuild.
const devModeEnv = "VMSIM_MONITOR_DEV"

//go:embed dist/*
var dashboard embed.FS

// GetAssets returns the dashboard files rooted at dist.
func GetAssets() http.FileSystem {
	if devModeEnabled() {
		dir := sourceDistDir()
		fmt.Fprintf(os.Stderr, "Serving the monitor dashboard from %s\n", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(dashboard, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func sourceDistDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the dashboard sources")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devModeEnabled() bool {
	v, ok := os.LookupEnv(devModeEnv)
	if !ok {
		return false
	}

	switch strings.ToLower(v) {
	case "1", "true":
		return true
	default:
		return false
	}
}
