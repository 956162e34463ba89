// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Static resources are served from the application's document base on the local filesystem.
// Names are relative to the document base and cannot escape it.

func (a *tomcatAdaptor) ResourceExists(ctx context.Context, app *Application, name string) bool {
	_, err := a.statResource(ctx, app, name)
	return err == nil
}

func (a *tomcatAdaptor) GetResourceStream(ctx context.Context, app *Application, name string) (io.ReadCloser, error) {
	root, rel, err := a.openDocBase(ctx, app, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = root.Close() }()

	fi, err := root.Stat(rel)
	if err != nil || fi.IsDir() {
		return nil, fmt.Errorf("resource '%s' of '%s': %w", name, app.DisplayPath(), ErrNotFound)
	}
	f, err := root.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("resource '%s' of '%s': %w", name, app.DisplayPath(), ErrNotFound)
	}
	return f, nil
}

func (a *tomcatAdaptor) GetResourceAttributes(ctx context.Context, app *Application, name string) (ResourceAttributes, error) {
	fi, err := a.statResource(ctx, app, name)
	if err != nil {
		return ResourceAttributes{}, err
	}
	return ResourceAttributes{Length: fi.Size(), LastModified: fi.ModTime()}, nil
}

func (a *tomcatAdaptor) statResource(ctx context.Context, app *Application, name string) (os.FileInfo, error) {
	root, rel, err := a.openDocBase(ctx, app, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = root.Close() }()

	fi, err := root.Stat(rel)
	if err != nil {
		return nil, fmt.Errorf("resource '%s' of '%s': %w", name, app.DisplayPath(), ErrNotFound)
	}
	return fi, nil
}

func (a *tomcatAdaptor) openDocBase(ctx context.Context, app *Application, name string) (*os.Root, string, error) {
	docBase, err := a.docBase(ctx, app)
	if err != nil {
		return nil, "", err
	}
	root, err := os.OpenRoot(docBase)
	if err != nil {
		return nil, "", fmt.Errorf("document base of '%s': %w", app.DisplayPath(), ErrNotFound)
	}

	rel := strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+name)), "/")
	if rel == "" {
		rel = "."
	}
	return root, filepath.FromSlash(rel), nil
}

func (a *tomcatAdaptor) docBase(ctx context.Context, app *Application) (string, error) {
	if app.DocBase == "" {
		return "", fmt.Errorf("application '%s' has no document base: %w", app.DisplayPath(), ErrNotFound)
	}
	if filepath.IsAbs(app.DocBase) {
		return app.DocBase, nil
	}
	base, err := a.AppBase(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, app.DocBase), nil
}
