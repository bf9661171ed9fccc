package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"publication-system/models"

	"github.com/google/uuid"
)

const (
	uploadFieldLabel = "pdf"
	storeAttempts    = 3
)

// File is a PDF found directly under the uploads root.
type File struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// Manager owns the public uploads directory. Every operation is bounded by
// the configured timeout.
type Manager struct {
	root    string
	timeout time.Duration
	mirror  Mirror
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Manager)

func WithMirror(m Mirror) Option {
	return func(mgr *Manager) { mgr.mirror = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(mgr *Manager) { mgr.logger = l }
}

// NewManager creates the uploads directory if missing.
func NewManager(root string, timeout time.Duration, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("uploads root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	m := &Manager{
		root:    abs,
		timeout: timeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the absolute uploads directory.
func (m *Manager) Root() string {
	return m.root
}

// Path resolves a stored name to its absolute location under the root.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.root, safeName(name))
}

// Store writes r to a fresh, never-reused name and returns that name.
func (m *Manager) Store(ctx context.Context, r io.Reader) (string, error) {
	var name string
	err := m.run(ctx, "store", func(commit func() bool) error {
		for attempt := 0; attempt < storeAttempts; attempt++ {
			candidate := m.uniqueName()
			f, err := os.OpenFile(filepath.Join(m.root, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("create file: %w", err)
			}
			if _, err := io.Copy(f, r); err != nil {
				f.Close()
				os.Remove(f.Name())
				return fmt.Errorf("write file: %w", err)
			}
			if err := f.Close(); err != nil {
				os.Remove(f.Name())
				return fmt.Errorf("close file: %w", err)
			}
			if !commit() {
				os.Remove(f.Name())
				return errors.New("store abandoned after timeout")
			}
			name = candidate
			return nil
		}
		return errors.New("could not allocate a unique file name")
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// Delete removes name from the uploads root. A missing file is not an error.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if safeName(name) == "" {
		return nil
	}
	err := m.run(ctx, "delete", func(func() bool) error {
		if err := os.Remove(m.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.unmirror(ctx, safeName(name))
	return nil
}

// Remove deletes name and reports a missing file as NotFound. It backs
// the user-facing "remove file" action, where the caller must learn about
// every failure.
func (m *Manager) Remove(ctx context.Context, name string) error {
	if safeName(name) == "" {
		return models.ErrorNotFound{Message: "File not found"}
	}
	var missing bool
	err := m.run(ctx, "remove", func(func() bool) error {
		err := os.Remove(m.Path(name))
		if errors.Is(err, fs.ErrNotExist) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if missing {
		return models.ErrorNotFound{Message: "File not found"}
	}
	m.unmirror(ctx, safeName(name))
	return nil
}

// List returns the PDFs directly under the root, sorted by name.
func (m *Manager) List(ctx context.Context) ([]File, error) {
	var files []File
	err := m.run(ctx, "list", func(func() bool) error {
		entries, err := os.ReadDir(m.root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			files = append(files, File{
				Name:    e.Name(),
				Path:    "/uploads/" + e.Name(),
				ModTime: info.ModTime().UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Purge removes every regular file under the root.
func (m *Manager) Purge(ctx context.Context) error {
	return m.run(ctx, "purge", func(func() bool) error {
		entries, err := os.ReadDir(m.root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		var errs []error
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(m.root, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func (m *Manager) exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (m *Manager) uniqueName() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s.pdf", uploadFieldLabel, m.now().UnixMilli(), token)
}

const (
	opRunning int32 = iota
	opCommitted
	opAbandoned
)

// run executes fn with the manager timeout. fn calls commit once its change
// is complete; a false result means the caller already gave up, and fn must
// undo the change. On expiry the caller gets a StorageFailure.
func (m *Manager) run(ctx context.Context, op string, fn func(commit func() bool) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var state atomic.Int32
	commit := func() bool { return state.CompareAndSwap(opRunning, opCommitted) }

	done := make(chan error, 1)
	go func() { done <- fn(commit) }()

	select {
	case err := <-done:
		return storageFailure(op, err)
	case <-ctx.Done():
		if !state.CompareAndSwap(opRunning, opAbandoned) {
			// fn committed just in time; its result is on the way.
			return storageFailure(op, <-done)
		}
		return models.ErrorStorageFailure{Op: op, Err: ctx.Err()}
	}
}

func storageFailure(op string, err error) error {
	if err != nil {
		return models.ErrorStorageFailure{Op: op, Err: err}
	}
	return nil
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}
