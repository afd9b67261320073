package osfilesystem

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/user/movieview/pkg/ports"
)

// ErrOutsideRoot is returned for asset names that escape the asset directory.
var ErrOutsideRoot = errors.New("osfilesystem: asset outside root")

// AssetDir resolves asset names relative to a root directory.
type AssetDir struct {
	root string
	fs   ports.FileSystem
}

// NewAssetDir serves assets from root through fs.
func NewAssetDir(root string, fs ports.FileSystem) *AssetDir {
	return &AssetDir{root: root, fs: fs}
}

// Resolve maps an asset name to a path below the root.
func (a *AssetDir) Resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return filepath.Join(a.root, clean), nil
}

// Open opens the named asset.
func (a *AssetDir) Open(name string) (io.ReadSeekCloser, error) {
	path, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}
	return a.fs.Open(path)
}

var _ ports.AssetProvider = (*AssetDir)(nil)
