package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// Fixed key-value entries used when the SQLite store is unavailable.
const (
	KeyLogs          = "tomato-logs"
	KeyPlans         = "tomato-plans"
	KeyTheme         = "tomato-theme"
	KeyCategories    = "tomato-categories"
	KeySoundEnabled  = "tomato-sound-enabled"
	keySettingPrefix = "tomato-setting:"
)

// KV implements Backend over a KeyValue by storing each collection as one
// JSON document.
type KV struct {
	kv KeyValue
	mu sync.Mutex
}

func NewKV(kv KeyValue) *KV {
	return &KV{kv: kv}
}

func settingKey(key string) string {
	switch key {
	case SettingTheme:
		return KeyTheme
	case SettingSoundEnabled:
		return KeySoundEnabled
	}
	return keySettingPrefix + key
}

func (k *KV) load(key string, v any) error {
	raw, ok, err := k.kv.Get(key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func encode(key string, v any, into map[string]string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	into[key] = string(raw)
	return nil
}

func (k *KV) save(values map[string]any) error {
	entries := make(map[string]string, len(values))
	for key, v := range values {
		if err := encode(key, v, entries); err != nil {
			return err
		}
	}
	return k.kv.Set(entries)
}

// categories returns the stored catalog, seeding the defaults when empty.
func (k *KV) categories() ([]Category, error) {
	var cats []Category
	if err := k.load(KeyCategories, &cats); err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}
	now := time.Now().UTC()
	for i, name := range DefaultCategories {
		cats = append(cats, Category{ID: int64(i + 1), Name: name, CreatedAt: now})
	}
	if err := k.save(map[string]any{KeyCategories: cats}); err != nil {
		return nil, err
	}
	return cats, nil
}

func (k *KV) Categories(ctx context.Context) ([]Category, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.categories()
}

func (k *KV) AddCategory(ctx context.Context, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	cats, err := k.categories()
	if err != nil {
		return err
	}
	var maxID int64
	for _, c := range cats {
		if c.Name == name {
			return nil
		}
		maxID = max(maxID, c.ID)
	}
	cats = append(cats, Category{ID: maxID + 1, Name: name, CreatedAt: time.Now().UTC()})
	return k.save(map[string]any{KeyCategories: cats})
}

// UpdateCategory renames a category and relabels its logs, since logs refer
// to categories by name here.
func (k *KV) UpdateCategory(ctx context.Context, id int64, name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	cats, err := k.categories()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return nil
	}
	var logs []WorkLog
	if err := k.load(KeyLogs, &logs); err != nil {
		return err
	}
	old := cats[i].Name
	cats[i].Name = name
	for j := range logs {
		if logs[j].Category == old {
			logs[j].Category = name
		}
	}
	return k.save(map[string]any{KeyCategories: cats, KeyLogs: logs})
}

func (k *KV) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cats, err := k.categories()
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 || cats[i].Protected() {
		return false, nil
	}
	var logs []WorkLog
	if err := k.load(KeyLogs, &logs); err != nil {
		return false, err
	}
	removed := cats[i].Name
	for j := range logs {
		if logs[j].Category == removed {
			logs[j].Category = ProtectedCategory
		}
	}
	cats = slices.Delete(cats, i, i+1)
	if !slices.ContainsFunc(cats, Category.Protected) {
		var maxID int64
		for _, c := range cats {
			maxID = max(maxID, c.ID)
		}
		cats = append(cats, Category{ID: maxID + 1, Name: ProtectedCategory, CreatedAt: time.Now().UTC()})
	}
	// One Set call keeps reassignment and removal together.
	if err := k.save(map[string]any{KeyCategories: cats, KeyLogs: logs}); err != nil {
		return false, err
	}
	return true, nil
}

func (k *KV) Logs(ctx context.Context) ([]WorkLog, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var logs []WorkLog
	if err := k.load(KeyLogs, &logs); err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}

func (k *KV) AppendLog(ctx context.Context, l WorkLog) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var logs []WorkLog
	if err := k.load(KeyLogs, &logs); err != nil {
		return err
	}
	if slices.ContainsFunc(logs, func(x WorkLog) bool { return x.ID == l.ID }) {
		return nil
	}
	logs = append(logs, l)
	return k.save(map[string]any{KeyLogs: logs})
}

func (k *KV) DeleteLog(ctx context.Context, id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var logs []WorkLog
	if err := k.load(KeyLogs, &logs); err != nil {
		return err
	}
	logs = slices.DeleteFunc(logs, func(l WorkLog) bool { return l.ID == id })
	return k.save(map[string]any{KeyLogs: logs})
}

func (k *KV) Plans(ctx context.Context) ([]Plan, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	var plans []Plan
	if err := k.load(KeyPlans, &plans); err != nil {
		return nil, err
	}
	slices.Reverse(plans)
	return plans, nil
}

func (k *KV) SavePlan(ctx context.Context, p Plan) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var plans []Plan
	if err := k.load(KeyPlans, &plans); err != nil {
		return err
	}
	if slices.ContainsFunc(plans, func(x Plan) bool { return x.ID == p.ID }) {
		return nil
	}
	plans = append(plans, p)
	return k.save(map[string]any{KeyPlans: plans})
}

func (k *KV) DeletePlan(ctx context.Context, id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var plans []Plan
	if err := k.load(KeyPlans, &plans); err != nil {
		return err
	}
	plans = slices.DeleteFunc(plans, func(p Plan) bool { return p.ID == id })
	return k.save(map[string]any{KeyPlans: plans})
}

// Settings are stored as raw strings, not JSON.
func (k *KV) Setting(ctx context.Context, key string) (string, bool, error) {
	return k.kv.Get(settingKey(key))
}

func (k *KV) SetSetting(ctx context.Context, key, value string) error {
	return k.kv.Set(map[string]string{settingKey(key): value})
}
