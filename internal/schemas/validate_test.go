package schemas

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope() map[string]any {
	return map[string]any{
		"type":     "APPLICATION_STATUS_SYNCED_FROM_FEEDBACK",
		"agencyId": uuid.NewString(),
		"payload": map[string]any{
			"applicationId":    uuid.NewString(),
			"previousStatus":   "NEW",
			"newStatus":        "QUALIFIED",
			"shortlistId":      uuid.NewString(),
			"shortlistName":    "Senior Go engineers",
			"clientFeedbackId": uuid.NewString(),
			"decision":         "APPROVED",
		},
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestValidateAuditEvent_Valid(t *testing.T) {
	assert.NoError(t, ValidateAuditEvent(marshal(t, validEnvelope())))
}

func TestValidateAuditEvent_MissingPayloadField(t *testing.T) {
	doc := validEnvelope()
	delete(doc["payload"].(map[string]any), "clientFeedbackId")

	err := ValidateAuditEvent(marshal(t, doc))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidateAuditEvent_UnknownStatus(t *testing.T) {
	doc := validEnvelope()
	doc["payload"].(map[string]any)["newStatus"] = "ARCHIVED"

	err := ValidateAuditEvent(marshal(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateAuditEvent_PendingDecisionRejected(t *testing.T) {
	doc := validEnvelope()
	doc["payload"].(map[string]any)["decision"] = "PENDING"

	assert.Error(t, ValidateAuditEvent(marshal(t, doc)))
}

func TestValidateAuditEvent_MalformedDocument(t *testing.T) {
	err := ValidateAuditEvent([]byte(`{not json`))
	assert.Error(t, err)
}

func TestValidateAuditEvent_FieldPath(t *testing.T) {
	doc := validEnvelope()
	doc["agencyId"] = 42

	err := ValidateAuditEvent(marshal(t, doc))
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "agencyId", validationErr.Errors[0].Field)
}

func TestSchemaLoadError(t *testing.T) {
	err := &SchemaLoadError{Path: "x.json", Message: "bad", Cause: assert.AnError}
	assert.Contains(t, err.Error(), "x.json")
	assert.ErrorIs(t, err, assert.AnError)
}
