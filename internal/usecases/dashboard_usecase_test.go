package usecases

import (
	"chatbot_erp/internal/entities"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardUsecase_CreateIntent(t *testing.T) {
	store := newFakeStore()
	catalog, _ := newTestCatalog(t, store)
	uc := NewDashboardUsecase(store, catalog)
	ctx := context.Background()

	_, err := catalog.Snapshot(ctx)
	require.NoError(t, err)

	intent, err := uc.CreateIntent(ctx, NewIntentInput{
		Title:      "  Boleto ",
		Variations: []string{"Segunda Via do Boleto ", "segunda via do boleto", "  ", "2a via boleto"},
		Template: &entities.ResponseTemplate{
			Variants:     []string{"Acesse o portal.", ""},
			QuickReplies: []entities.QuickReply{{Title: "Portal", Payload: "portal"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Boleto", intent.Title)
	assert.Equal(t, entities.IntentGeneric, intent.Kind)
	assert.Equal(t, []string{"Acesse o portal."}, intent.Template.Variants)
	assert.Equal(t, "Acesse o portal.", intent.Response)

	var texts []string
	for _, v := range store.variations {
		texts = append(texts, v.Text)
	}
	assert.Equal(t, []string{"segunda via do boleto", "2a via boleto"}, texts)

	found, err := catalog.Lookup(ctx, intent.ID)
	require.NoError(t, err)
	assert.NotNil(t, found, "catalog invalidated after create")
}

func TestDashboardUsecase_CreateIntentValidation(t *testing.T) {
	uc := NewDashboardUsecase(newFakeStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewIntentInput
	}{
		{"missing title", NewIntentInput{Variations: []string{"x"}, Response: "y"}},
		{"unknown kind", NewIntentInput{Title: "t", Kind: "magic", Variations: []string{"x"}, Response: "y"}},
		{"no variations", NewIntentInput{Title: "t", Variations: []string{" "}, Response: "y"}},
		{"no reply", NewIntentInput{Title: "t", Variations: []string{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateIntent(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDashboardUsecase_DeleteIntent(t *testing.T) {
	store := newFakeStore()
	id := store.addIntent(entities.Intent{Title: "A", Response: "a"}, "a", "b")
	catalog, _ := newTestCatalog(t, store)
	uc := NewDashboardUsecase(store, catalog)
	ctx := context.Background()

	require.NoError(t, uc.DeleteIntent(ctx, id))
	assert.Empty(t, store.variations, "variations cascade")
	assert.ErrorIs(t, uc.DeleteIntent(ctx, id), ErrNotFound)

	_, err := uc.GetIntent(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboardUsecase_UnansweredQuestions(t *testing.T) {
	f := newChatFixture(t)
	f.ask(t, "como emitir nota fiscal")
	f.ask(t, "qual a cor do céu?")

	uc := NewDashboardUsecase(f.store, nil)
	got, err := uc.UnansweredQuestions(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "qual a cor do céu?", got[0].Question)
}

func TestDashboardUsecase_Engagement(t *testing.T) {
	f := newChatFixture(t)
	f.store.addTenant(&entities.Tenant{Name: "Quiet", AccessToken: "tok-quiet"})
	f.ask(t, "como emitir nota fiscal")
	f.ask(t, "qual a cor do céu?")
	f.ask(t, "ver catalogo")

	uc := NewDashboardUsecase(f.store, nil)
	got, err := uc.Engagement(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entities.ClientEngagement{
		TenantName:        "Acme",
		Conversations:     1,
		Messages:          6,
		BotReplies:        3,
		Fallbacks:         1,
		AssertivenessRate: 66.7,
	}, got[0])
	assert.Equal(t, entities.ClientEngagement{TenantName: "Quiet"}, got[1])
}

func TestAssertivenessRate(t *testing.T) {
	assert.Zero(t, assertivenessRate(0, 0))
	assert.Equal(t, 100.0, assertivenessRate(4, 0))
	assert.Equal(t, 75.0, assertivenessRate(4, 1))
	assert.Equal(t, 0.0, assertivenessRate(2, 2))
}
