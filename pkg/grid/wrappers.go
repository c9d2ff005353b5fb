// pkg/grid/wrappers.go

package grid

import (
	"context"

	"GridKV/pkg/store"

	"github.com/pkg/errors"
)

func rootOrDefault(root string) string {
	if root == "" {
		return DefaultRoot
	}
	return root
}

// Exists reports whether a file record with the given name exists.
func Exists(ctx context.Context, st store.Store, root, name string) (bool, error) {
	_, err := st.LookupFile(ctx, rootOrDefault(root), name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all filenames under the root, sorted.
func List(ctx context.Context, st store.Store, root string) ([]string, error) {
	return st.ListFilenames(ctx, rootOrDefault(root))
}

// Remove deletes the named files with their chunks. Missing names are
// skipped.
func Remove(ctx context.Context, st store.Store, root string, names ...string) error {
	root = rootOrDefault(root)
	for _, name := range names {
		info, err := st.LookupFile(ctx, root, name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "lookup %s", name)
		}
		if err := st.RemoveChunks(ctx, root, info.ID); err != nil {
			return errors.Wrapf(err, "drop chunks of %s", name)
		}
		if err := st.RemoveFile(ctx, root, info.ID); err != nil {
			return errors.Wrapf(err, "remove %s", name)
		}
	}
	return nil
}

// Rename changes only the filename field of the file record; content
// and chunks are untouched.
func Rename(ctx context.Context, st store.Store, root, src, dst string) error {
	root = rootOrDefault(root)
	info, err := st.LookupFile(ctx, root, src)
	if err != nil {
		return errors.Wrapf(err, "lookup %s", src)
	}
	return st.UpdateFilename(ctx, root, info.ID, dst)
}
