package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	require.NoError(t, base.BeforeCreate(nil))
	require.Equal(t, "fixed", base.ID)
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"tenant", func() *BaseModel { return &(&Tenant{}).BaseModel }},
		{"user", func() *BaseModel { return &(&User{}).BaseModel }},
		{"dealership", func() *BaseModel { return &(&Dealership{}).BaseModel }},
		{"metric_sample", func() *BaseModel { return &(&MetricSample{}).BaseModel }},
		{"score", func() *BaseModel { return &(&Score{}).BaseModel }},
		{"sentinel_event", func() *BaseModel { return &(&SentinelEvent{}).BaseModel }},
		{"fix_pack", func() *BaseModel { return &(&FixPack{}).BaseModel }},
		{"integration", func() *BaseModel { return &(&Integration{}).BaseModel }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model()
			require.NoError(t, model.BeforeCreate(nil))
			require.NotEmpty(t, model.ID)
		})
	}
}

func TestAuditLogBeforeCreate(t *testing.T) {
	var entry AuditLog
	require.NoError(t, entry.BeforeCreate(nil))
	require.NotEmpty(t, entry.ID)
}

func TestSentinelEventAcknowledged(t *testing.T) {
	var event SentinelEvent
	require.False(t, event.Acknowledged())

	now := time.Now()
	event.AcknowledgedAt = &now
	require.True(t, event.Acknowledged())
}
