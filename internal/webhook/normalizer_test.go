package webhook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easymo/internal/logger"
	"easymo/pkg/models"
)

func TestNormalizeRaw(t *testing.T) {
	n := NewNormalizer(logger.NopLogger())
	ctx := context.Background()

	t.Run("text message", func(t *testing.T) {
		body := []byte(`{
			"object": "whatsapp_business_account",
			"entry": [{
				"id": "entry-1",
				"changes": [{
					"field": "messages",
					"value": {
						"messages": [{
							"from": "254700000001",
							"id": "wamid.A1",
							"type": "text",
							"text": {"body": "easymo please"}
						}]
					}
				}]
			}]
		}`)

		msgs, err := n.NormalizeRaw(ctx, body)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "254700000001", msgs[0].From)
		assert.Equal(t, "wamid.A1", msgs[0].MessageID)
		assert.Equal(t, "text", msgs[0].Type)
		assert.Equal(t, "easymo please", msgs[0].Text)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := n.NormalizeRaw(ctx, []byte("{not json"))
		assert.Error(t, err)
	})
}

func TestNormalizePreservesArrivalOrder(t *testing.T) {
	n := NewNormalizer(logger.NopLogger())

	payload := models.Payload{
		Entry: []models.Entry{
			{
				ID: "entry-1",
				Changes: []models.Change{
					{
						Field: "messages",
						Value: &models.Value{
							Messages: []models.Message{
								{From: "254700000001", ID: "wamid.1", Type: "text", Text: &models.TextContent{Body: "first"}},
								{From: "254700000001", ID: "wamid.2", Type: "text", Text: &models.TextContent{Body: "second"}},
							},
						},
					},
				},
			},
			{
				ID: "entry-2",
				Changes: []models.Change{
					{
						Field: "messages",
						Value: &models.Value{
							Messages: []models.Message{
								{From: "254700000002", ID: "wamid.3", Type: "text", Text: &models.TextContent{Body: "third"}},
							},
						},
					},
				},
			},
		},
	}

	msgs := n.Normalize(context.Background(), payload)
	require.Len(t, msgs, 3)
	assert.Equal(t, "wamid.1", msgs[0].MessageID)
	assert.Equal(t, "wamid.2", msgs[1].MessageID)
	assert.Equal(t, "wamid.3", msgs[2].MessageID)
}

func TestNormalizeSkipsMalformedUnits(t *testing.T) {
	n := NewNormalizer(logger.NopLogger())

	payload := models.Payload{
		Entry: []models.Entry{
			{
				ID: "entry-1",
				Changes: []models.Change{
					{Field: "statuses", Value: nil},
					{
						Field: "messages",
						Value: &models.Value{
							Messages: []models.Message{
								{From: "", ID: "wamid.no-sender", Type: "text"},
								{From: "254700000001", ID: "", Type: "text"},
								{From: "254700000001", ID: "wamid.ok", Type: "text", Text: &models.TextContent{Body: "hello"}},
							},
						},
					},
					{
						Field: "messages",
						Value: &models.Value{Messages: nil},
					},
				},
			},
		},
	}

	msgs := n.Normalize(context.Background(), payload)
	require.Len(t, msgs, 1)
	assert.Equal(t, "wamid.ok", msgs[0].MessageID)
}

func TestNormalizeMessageContent(t *testing.T) {
	n := NewNormalizer(logger.NopLogger())

	tests := []struct {
		name  string
		msg   models.Message
		check func(t *testing.T, got models.NormalizedMessage)
	}{
		{
			name: "button reply",
			msg: models.Message{
				From: "254700000001",
				ID:   "wamid.b",
				Type: "interactive",
				Interactive: &models.Interactive{
					Type:        "button_reply",
					ButtonReply: &models.Reply{ID: "btn-1", Title: "Insurance"},
				},
			},
			check: func(t *testing.T, got models.NormalizedMessage) {
				require.NotNil(t, got.Interactive)
				assert.Equal(t, "button_reply", got.Interactive.Kind)
				assert.Equal(t, "btn-1", got.Interactive.ID)
				assert.Equal(t, "Insurance", got.Interactive.Title)
			},
		},
		{
			name: "list reply",
			msg: models.Message{
				From: "254700000001",
				ID:   "wamid.l",
				Type: "interactive",
				Interactive: &models.Interactive{
					Type:      "list_reply",
					ListReply: &models.Reply{ID: "row-2", Title: "Dine deals"},
				},
			},
			check: func(t *testing.T, got models.NormalizedMessage) {
				require.NotNil(t, got.Interactive)
				assert.Equal(t, "list_reply", got.Interactive.Kind)
				assert.Equal(t, "row-2", got.Interactive.ID)
			},
		},
		{
			name: "image with caption",
			msg: models.Message{
				From:  "254700000001",
				ID:    "wamid.i",
				Type:  "image",
				Image: &models.Media{ID: "media-1", Caption: "receipt"},
			},
			check: func(t *testing.T, got models.NormalizedMessage) {
				require.NotNil(t, got.Media)
				assert.Equal(t, "image", got.Media.Kind)
				assert.Equal(t, "media-1", got.Media.ID)
				assert.Equal(t, "receipt", got.Media.Caption)
			},
		},
		{
			name: "unknown type passes through",
			msg: models.Message{
				From: "254700000001",
				ID:   "wamid.u",
				Type: "location",
			},
			check: func(t *testing.T, got models.NormalizedMessage) {
				assert.Equal(t, "location", got.Type)
				assert.Empty(t, got.Text)
				assert.Nil(t, got.Interactive)
				assert.Nil(t, got.Media)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.normalizeMessage(tt.msg)
			require.True(t, ok)
			assert.Equal(t, tt.msg.From, got.From)
			assert.Equal(t, tt.msg.ID, got.MessageID)
			tt.check(t, got)
		})
	}
}
