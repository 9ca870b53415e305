package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusObserverCounts(t *testing.T) {
	var buf bytes.Buffer
	obs := NewStatusObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	obs.Record("success", 3, "")
	obs.Record("success", 0, "")
	obs.Record("blocked", 0, "sentinel")
	obs.Record("error", 0, "timeout")

	assert.Equal(t, map[string]int64{"success": 2, "blocked": 1, "error": 1}, obs.Snapshot())
	assert.Contains(t, buf.String(), "reason=sentinel")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestStatusObserverSnapshotIsCopy(t *testing.T) {
	obs := NewStatusObserver(nil)
	obs.Record("success", 1, "")

	snap := obs.Snapshot()
	snap["success"] = 99
	assert.Equal(t, int64(1), obs.Snapshot()["success"])
}

func TestNilStatusObserver(t *testing.T) {
	var obs *StatusObserver
	obs.Record("success", 1, "")
	assert.Empty(t, obs.Snapshot())
}
