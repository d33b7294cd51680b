package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Status reports which tier the Persistence adapter resolved to at startup.
type Status int

const (
	Unavailable Status = iota // only the key-value fallback is in use
	Ready                     // SQLite is the primary backend
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "unavailable"
}

// Options locate the backing files. Empty paths disable that tier.
type Options struct {
	DBPath string
	KVPath string
}

// Persistence gives best-effort access to categories, logs, plans and
// settings. Every operation tries the primary backend first and, when it
// fails, repeats against the key-value fallback. Backend failures are logged,
// never returned; only validation errors reach the caller.
type Persistence struct {
	primary  Backend
	fallback Backend
	logger   *slog.Logger
	closer   io.Closer
}

// Open resolves the storage tiers: SQLite, then the JSON key-value file, then
// memory. When SQLite opens, previously stored fallback data is migrated once.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Persistence, Status) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var kv KeyValue
	if opts.KVPath != "" {
		fkv, err := OpenFileKV(opts.KVPath)
		if err != nil {
			logger.WarnContext(ctx, "key-value store unavailable, using memory", "path", opts.KVPath, "error", err)
		} else {
			kv = fkv
		}
	}
	if kv == nil {
		kv = NewMemoryKV()
	}
	fallback := NewKV(kv)

	if opts.DBPath == "" {
		logger.InfoContext(ctx, "sqlite store disabled", "error", ErrUnavailable)
		return NewPersistence(nil, fallback, logger), Unavailable
	}
	db, err := New(opts.DBPath)
	if err != nil {
		logger.InfoContext(ctx, "sqlite store unavailable", "path", opts.DBPath, "error", err)
		return NewPersistence(nil, fallback, logger), Unavailable
	}

	if n, err := MigrateFromKV(ctx, db, fallback); err != nil {
		logger.WarnContext(ctx, "migration from key-value store failed", "error", err)
	} else if n > 0 {
		logger.InfoContext(ctx, "migrated key-value data", "records", n)
	}

	p := NewPersistence(db, fallback, logger)
	p.closer = db
	return p, Ready
}

// NewPersistence wires an adapter from explicit backends. primary may be nil.
func NewPersistence(primary, fallback Backend, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Persistence{primary: primary, fallback: fallback, logger: logger}
}

func (p *Persistence) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Status reports whether the primary backend is in use.
func (p *Persistence) Status() Status {
	if p.primary != nil {
		return Ready
	}
	return Unavailable
}

func (p *Persistence) run(ctx context.Context, op string, fn func(Backend) error) {
	if p.primary != nil {
		err := fn(p.primary)
		if err == nil {
			return
		}
		p.logger.WarnContext(ctx, "persistence operation failed, using fallback",
			"op", op, "backend", "sqlite", "error", err)
	}
	if err := fn(p.fallback); err != nil {
		p.logger.WarnContext(ctx, "fallback operation failed",
			"op", op, "backend", "kv", "error", err)
	}
}

func (p *Persistence) Categories(ctx context.Context) []Category {
	var out []Category
	p.run(ctx, "categories", func(b Backend) (err error) {
		out, err = b.Categories(ctx)
		return err
	})
	return out
}

func (p *Persistence) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}
	p.run(ctx, "add_category", func(b Backend) error {
		return b.AddCategory(ctx, name)
	})
	return nil
}

// UpdateCategory renames a category. The protected category keeps its name.
func (p *Persistence) UpdateCategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}
	cats := p.Categories(ctx)
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if cats[i].Protected() {
		return ErrProtectedCategory
	}
	if slices.ContainsFunc(cats, func(c Category) bool { return c.ID != id && c.Name == name }) {
		return fmt.Errorf("category %q: %w", name, ErrDuplicateName)
	}
	oldName := cats[i].Name
	p.run(ctx, "update_category", func(b Backend) error {
		bid, err := p.categoryID(ctx, b, id, oldName)
		if err != nil {
			return err
		}
		return b.UpdateCategory(ctx, bid, name)
	})
	return nil
}

// DeleteCategory removes a category after moving its logs to
// ProtectedCategory. It reports whether anything was removed; the protected
// category is never removed.
func (p *Persistence) DeleteCategory(ctx context.Context, id int64) bool {
	cats := p.Categories(ctx)
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return false
	}
	name := cats[i].Name
	var deleted bool
	p.run(ctx, "delete_category", func(b Backend) error {
		bid, err := p.categoryID(ctx, b, id, name)
		if err != nil {
			return err
		}
		deleted, err = b.DeleteCategory(ctx, bid)
		return err
	})
	return deleted
}

// categoryID maps an id from the primary catalog onto b. Each backend
// assigns its own ids, so the fallback is matched by name.
func (p *Persistence) categoryID(ctx context.Context, b Backend, id int64, name string) (int64, error) {
	if p.primary == nil || b == p.primary {
		return id, nil
	}
	cats, err := b.Categories(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("category %q: %w", name, ErrNotFound)
}

func (p *Persistence) Logs(ctx context.Context) []WorkLog {
	var out []WorkLog
	p.run(ctx, "logs", func(b Backend) (err error) {
		out, err = b.Logs(ctx)
		return err
	})
	return out
}

func (p *Persistence) AppendLog(ctx context.Context, l WorkLog) {
	if l.Duration < 0 {
		l.Duration = 0
	}
	p.run(ctx, "append_log", func(b Backend) error {
		return b.AppendLog(ctx, l)
	})
}

func (p *Persistence) DeleteLog(ctx context.Context, id string) {
	p.run(ctx, "delete_log", func(b Backend) error {
		return b.DeleteLog(ctx, id)
	})
}

func (p *Persistence) Plans(ctx context.Context) []Plan {
	var out []Plan
	p.run(ctx, "plans", func(b Backend) (err error) {
		out, err = b.Plans(ctx)
		return err
	})
	return out
}

func (p *Persistence) SavePlan(ctx context.Context, plan Plan) error {
	if err := ValidatePlan(plan); err != nil {
		return err
	}
	p.run(ctx, "save_plan", func(b Backend) error {
		return b.SavePlan(ctx, plan)
	})
	return nil
}

func (p *Persistence) DeletePlan(ctx context.Context, id string) {
	p.run(ctx, "delete_plan", func(b Backend) error {
		return b.DeletePlan(ctx, id)
	})
}

// Setting returns the value for key and whether it was set.
func (p *Persistence) Setting(ctx context.Context, key string) (string, bool) {
	var (
		value string
		ok    bool
	)
	p.run(ctx, "setting", func(b Backend) (err error) {
		value, ok, err = b.Setting(ctx, key)
		return err
	})
	return value, ok
}

func (p *Persistence) SetSetting(ctx context.Context, key, value string) {
	p.run(ctx, "set_setting", func(b Backend) error {
		return b.SetSetting(ctx, key, value)
	})
}
