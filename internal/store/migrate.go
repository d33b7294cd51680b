package store

import (
	"context"
	"fmt"
)

// settingMigrated marks a database that already received the fallback data.
const settingMigrated = "kv_migrated"

// MigrateFromKV copies logs, plans and the theme setting from the key-value
// fallback into db. It does nothing when db already holds logs or has been
// migrated before, so repeated launches never duplicate or resurrect rows.
// It returns the number of records copied.
func MigrateFromKV(ctx context.Context, db *SQLite, kv *KV) (int, error) {
	if _, done, err := db.Setting(ctx, settingMigrated); err != nil || done {
		return 0, err
	}
	count, err := db.LogCount(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, db.SetSetting(ctx, settingMigrated, "1")
	}

	copied := 0
	logs, err := kv.Logs(ctx)
	if err != nil {
		return 0, fmt.Errorf("read fallback logs: %w", err)
	}
	for _, l := range logs {
		if err := db.AppendLog(ctx, l); err != nil {
			return copied, err
		}
		copied++
	}

	plans, err := kv.Plans(ctx)
	if err != nil {
		return copied, fmt.Errorf("read fallback plans: %w", err)
	}
	for _, p := range plans {
		if err := db.SavePlan(ctx, p); err != nil {
			return copied, err
		}
		copied++
	}

	theme, ok, err := kv.Setting(ctx, SettingTheme)
	if err != nil {
		return copied, fmt.Errorf("read fallback theme: %w", err)
	}
	if ok {
		if err := db.SetSetting(ctx, SettingTheme, theme); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, db.SetSetting(ctx, settingMigrated, "1")
}
