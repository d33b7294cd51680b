package store

import "context"

// Backend is the storage contract shared by the SQLite store and the
// key-value fallback.
type Backend interface {
	Categories(ctx context.Context) ([]Category, error)
	AddCategory(ctx context.Context, name string) error
	UpdateCategory(ctx context.Context, id int64, name string) error
	// DeleteCategory reassigns the category's logs to ProtectedCategory and
	// removes it. It reports false without error for the protected category
	// or an unknown id.
	DeleteCategory(ctx context.Context, id int64) (bool, error)

	Logs(ctx context.Context) ([]WorkLog, error)
	AppendLog(ctx context.Context, l WorkLog) error
	DeleteLog(ctx context.Context, id string) error

	Plans(ctx context.Context) ([]Plan, error)
	SavePlan(ctx context.Context, p Plan) error
	DeletePlan(ctx context.Context, id string) error

	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

var (
	_ Backend = (*SQLite)(nil)
	_ Backend = (*KV)(nil)
)
