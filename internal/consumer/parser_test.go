package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

func TestJSONEventParser_Parse(t *testing.T) {
	parser := NewJSONEventParser()

	event, err := parser.Parse([]byte(`{
		"event_type": "conversion",
		"entity_id": "camp_1",
		"tenant_id": "org_1",
		"timestamp": 1740823200,
		"value": 12.5,
		"metadata": {"session_id": "s-1", "duration": 30}
	}`))

	require.NoError(t, err)
	assert.Equal(t, domain.EventConversion, event.EventType)
	assert.Equal(t, "camp_1", event.EntityID)
	assert.Equal(t, "org_1", event.TenantID)
	assert.Equal(t, time.Unix(1740823200, 0).UTC(), event.Timestamp)
	require.NotNil(t, event.Value)
	assert.Equal(t, 12.5, *event.Value)
	assert.Equal(t, "s-1", event.Metadata[domain.MetaSessionID])
}

func TestJSONEventParser_Parse_NoTimestamp(t *testing.T) {
	event, err := NewJSONEventParser().Parse([]byte(`{"event_type": "click", "entity_id": "camp_1", "tenant_id": "org_1"}`))

	require.NoError(t, err)
	assert.True(t, event.Timestamp.IsZero())
	assert.Nil(t, event.Value)
}

func TestJSONEventParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{invalid}`},
		{name: "empty object", body: `{}`},
		{name: "unrelated payload", body: `{"event_id": "1", "channel": "web"}`},
		{name: "wrong field type", body: `{"event_type": 7, "entity_id": "camp_1", "tenant_id": "org_1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NewJSONEventParser().Parse([]byte(tt.body))
			assert.Error(t, err)
			assert.Nil(t, event)
		})
	}
}

func TestJSONEventParser_Parse_LeavesValidationToPipeline(t *testing.T) {
	event, err := NewJSONEventParser().Parse([]byte(`{"event_type": "hover", "entity_id": "camp_1", "tenant_id": "org_1"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.EventType("hover"), event.EventType)
}
