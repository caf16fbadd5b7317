//go:build !windows

package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Sandboxed Discord builds put the socket in a subdirectory of the runtime dir.
var sandboxDirs = []string{"", "app/com.discordapp.Discord", "snap.discord"}

// socketDirs lists candidate directories in lookup order.
func socketDirs() []string {
	var dirs []string
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(key); v != "" {
			dirs = append(dirs, v)
		}
	}
	return append(dirs, "/tmp")
}

func socketPaths() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for _, sub := range sandboxDirs {
			for i := range 10 {
				paths = append(paths, filepath.Join(dir, sub, fmt.Sprintf("discord-ipc-%d", i)))
			}
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	for _, path := range socketPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, errors.New("no discord-ipc socket found")
}
