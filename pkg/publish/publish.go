// Package publish copies finished reports to a remote host over SFTP.
package publish

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/netcensus/netcensus/pkg/util"
)

// Upload copies the file at localPath into remoteDir on the host behind
// client, creating remoteDir if needed. It returns the remote file path.
func Upload(client *ssh.Client, localPath, remoteDir string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return "", fmt.Errorf("starting sftp on %s: %w", client.RemoteAddr(), err)
	}
	defer sc.Close()

	if err := sc.MkdirAll(remoteDir); err != nil {
		return "", fmt.Errorf("creating %s: %w", remoteDir, err)
	}

	remote := path.Join(remoteDir, filepath.Base(localPath))
	dst, err := sc.Create(remote)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", remote, err)
	}
	n, err := dst.ReadFrom(src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", remote, err)
	}

	util.WithFields(map[string]interface{}{
		"host":  client.RemoteAddr().String(),
		"path":  remote,
		"bytes": n,
	}).Info("Report uploaded")
	return remote, nil
}
