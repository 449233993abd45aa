package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisit_TableName(t *testing.T) {
	visit := Visit{}
	assert.Equal(t, "visits", visit.TableName())
}

func TestVisit_BeforeCreate(t *testing.T) {
	visit := &Visit{PracticeName: "Acme Dental"}
	require.NoError(t, visit.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, visit.ID)
	assert.Equal(t, VisitStatusSaved, visit.Status)

	id := uuid.New()
	draft := &Visit{ID: id, Status: VisitStatusDraft}
	require.NoError(t, draft.BeforeCreate(nil))
	assert.Equal(t, id, draft.ID, "existing id is kept")
	assert.Equal(t, VisitStatusDraft, draft.Status)
}

func TestVisit_HasCreditCard(t *testing.T) {
	assert.False(t, (&Visit{}).HasCreditCard())
	assert.False(t, (&Visit{CreditCard: &CreditCard{Name: "J Doe"}}).HasCreditCard())
	assert.True(t, (&Visit{CreditCard: &CreditCard{Number: "4242424242424242"}}).HasCreditCard())
}

func TestVisit_IsValidStatus(t *testing.T) {
	tests := []struct {
		status string
		valid  bool
	}{
		{"draft", true},
		{"saved", true},
		{"submitted", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidStatus(tt.status))
		})
	}
}

func TestSamples_Mapping(t *testing.T) {
	assert.Equal(t, "ipr-glide", SampleID("IPR Glide"))
	assert.Equal(t, "IPR Glide", SampleName("ipr-glide"))
	assert.Equal(t, "custom-sample", SampleName("custom-sample"))
	assert.Equal(t, "creme-brulee-kit", SampleID("Crème  Brûlée Kit"))
	assert.True(t, IsCatalogSample("Other"))
	assert.False(t, IsCatalogSample("other"))
	assert.Len(t, SampleCatalog(), 5)
}

func TestFormatSamples(t *testing.T) {
	assert.Equal(t, "None", FormatSamples(nil))
	assert.Equal(t, "None", FormatSamples([]SampleEntry{{Name: "Other", Quantity: 0}}))
	assert.Equal(t, "AlignerFresh Mint: 2, IPR Glide: 1", FormatSamples([]SampleEntry{
		{Name: "AlignerFresh Mint", Quantity: 2},
		{Name: "Other", Quantity: 0},
		{Name: "IPR Glide", Quantity: 1},
	}))
}

func TestAuthSession_Lifecycle(t *testing.T) {
	s := &AuthSession{SessionID: "session_1", UserID: DefaultUserID}
	require.NoError(t, s.BeforeCreate(nil))

	assert.Equal(t, "auth_sessions", s.TableName())
	assert.NotEqual(t, uuid.Nil, s.ID)

	now := time.Now()
	assert.False(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(366*24*time.Hour)))
}
