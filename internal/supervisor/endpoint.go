package supervisor

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Origin returns the scheme://host:port base the server listens on.
func Origin(hostname string, port int) string {
	return fmt.Sprintf("http://%s:%d", hostname, port)
}

// DirToken derives a stable, URL-safe token from a target directory path.
// The encoding is one-way; the host only needs the same directory to map
// to the same served path across restarts.
func DirToken(dir string) string {
	sum := sha256.Sum256([]byte(dir))
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}

// EndpointFor computes the base URL the host UI embeds for a target
// directory.
func EndpointFor(hostname string, port int, targetDir string) string {
	return Origin(hostname, port) + "/" + DirToken(targetDir)
}
