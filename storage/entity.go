// Package storage provides entity storage for socrelay using NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/thirdspace/socrelay/reputation"
)

// EntityType represents the type of entity stored in KV.
type EntityType string

const (
	EntityTypeAlert   EntityType = "alert"
	EntityTypeScanLog EntityType = "scanlog"
)

// Bucket names for each entity type.
const (
	BucketAlerts   = "SOCRELAY_ALERTS"
	BucketScanLogs = "SOCRELAY_SCANLOGS"
)

// EntityID represents a typed entity identifier.
type EntityID struct {
	Type EntityType
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	entityType := EntityType(parts[0])
	switch entityType {
	case EntityTypeAlert, EntityTypeScanLog:
		return EntityID{Type: entityType, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity type: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given type.
func NewEntityID(t EntityType) EntityID {
	return EntityID{
		Type: t,
		ID:   uuid.New().String(),
	}
}

// AlertRecord represents a persisted alert with its URL-scan outcome.
// CreatedAt is set once on creation and never updated.
type AlertRecord struct {
	ID               string               `json:"id"`
	Text             string               `json:"text"`
	Source           string               `json:"source"`
	PhishingDetected bool                 `json:"phishing_detected"`
	PhishingDetails  []reputation.Finding `json:"phishing_details,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ScanLog records the duration of one phishing-detection run for metrics.
type ScanLog struct {
	ID         string    `json:"id"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
}

// Store provides entity storage operations backed by NATS KV.
type Store struct {
	alerts   jetstream.KeyValue
	scanLogs jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the necessary KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	alerts, err := getOrCreateBucket(ctx, js, BucketAlerts)
	if err != nil {
		return nil, fmt.Errorf("create alerts bucket: %w", err)
	}

	scanLogs, err := getOrCreateBucket(ctx, js, BucketScanLogs)
	if err != nil {
		return nil, fmt.Errorf("create scan logs bucket: %w", err)
	}

	return &Store{
		alerts:   alerts,
		scanLogs: scanLogs,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Socrelay %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// CreateAlert persists a new alert record and returns its ID.
func (s *Store) CreateAlert(ctx context.Context, a *AlertRecord) (EntityID, error) {
	id := NewEntityID(EntityTypeAlert)
	a.ID = id.String()
	a.CreatedAt = time.Now()

	data, err := json.Marshal(a)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal alert: %w", err)
	}

	if _, err := s.alerts.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store alert: %w", err)
	}

	return id, nil
}

// GetAlert retrieves an alert record by ID.
func (s *Store) GetAlert(ctx context.Context, id EntityID) (*AlertRecord, error) {
	if id.Type != EntityTypeAlert {
		return nil, fmt.Errorf("invalid entity type: expected alert, got %s", id.Type)
	}

	entry, err := s.alerts.Get(ctx, id.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}

	var a AlertRecord
	if err := json.Unmarshal(entry.Value(), &a); err != nil {
		return nil, fmt.Errorf("unmarshal alert: %w", err)
	}

	return &a, nil
}

// ListAlerts returns all alert records, newest first.
func (s *Store) ListAlerts(ctx context.Context) ([]*AlertRecord, error) {
	keys, err := s.alerts.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list alert keys: %w", err)
	}

	alerts := make([]*AlertRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := s.alerts.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var a AlertRecord
		if err := json.Unmarshal(entry.Value(), &a); err != nil {
			continue
		}
		alerts = append(alerts, &a)
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	return alerts, nil
}

// CreateScanLog persists a phishing-scan timing record and returns its ID.
func (s *Store) CreateScanLog(ctx context.Context, l *ScanLog) (EntityID, error) {
	id := NewEntityID(EntityTypeScanLog)
	l.ID = id.String()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}

	data, err := json.Marshal(l)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal scan log: %w", err)
	}

	if _, err := s.scanLogs.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store scan log: %w", err)
	}

	return id, nil
}

// ListScanLogs returns all scan logs, newest first.
func (s *Store) ListScanLogs(ctx context.Context) ([]*ScanLog, error) {
	keys, err := s.scanLogs.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list scan log keys: %w", err)
	}

	logs := make([]*ScanLog, 0, len(keys))
	for _, key := range keys {
		entry, err := s.scanLogs.Get(ctx, key)
		if err != nil {
			continue
		}
		var l ScanLog
		if err := json.Unmarshal(entry.Value(), &l); err != nil {
			continue
		}
		logs = append(logs, &l)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})

	return logs, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
