// Package audit appends entries to the audit trail. Recording is best
// effort: a failure is logged and never reaches the caller.
package audit

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ilng/roster/internal/mq"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

// SystemActor is the performer recorded when no user is known.
const SystemActor = "system"

const publishTimeout = 5 * time.Second

// Entry describes one performed action.
type Entry struct {
	Action             string
	PerformedBy        string
	TargetResourceType string
	TargetResourceID   string
	PreviousValue      string
	NewValue           string
	Metadata           map[string]string
}

// Publisher fans entries out to other systems.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Recorder writes entries to the store and, when configured, publishes
// them on mq.AuditChannel.
type Recorder struct {
	store     *store.Store
	publisher Publisher
}

// NewRecorder returns a recorder. publisher may be nil.
func NewRecorder(s *store.Store, publisher Publisher) *Recorder {
	return &Recorder{store: s, publisher: publisher}
}

// Record appends e to the trail.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.PerformedBy == "" {
		e.PerformedBy = SystemActor
	}

	ctx = context.WithoutCancel(ctx)
	var saved types.AuditLog
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		saved, err = tx.CreateAuditLog(types.AuditLog{
			Action:             e.Action,
			PerformedBy:        e.PerformedBy,
			TargetResourceType: e.TargetResourceType,
			TargetResourceID:   e.TargetResourceID,
			PreviousValue:      e.PreviousValue,
			NewValue:           e.NewValue,
			Metadata:           e.Metadata,
		})
		return err
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"action":       e.Action,
			"performed_by": e.PerformedBy,
		}).Error("failed to record audit entry")
		return
	}

	r.publish(ctx, saved)
}

func (r *Recorder) publish(ctx context.Context, entry types.AuditLog) {
	if r.publisher == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.WithError(err).WithField("audit_id", entry.ID).Error("failed to encode audit entry")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	attrs := map[string]string{"id": entry.ID, "action": entry.Action}
	if _, err := r.publisher.Publish(ctx, mq.AuditChannel, data, attrs); err != nil {
		log.WithError(err).WithField("audit_id", entry.ID).Warn("failed to publish audit entry")
	}
}
