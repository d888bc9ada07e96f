package usecases

import (
	"chatbot_erp/internal/entities"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLegacyTemplate_RoundTrip(t *testing.T) {
	raw := "Para emitir uma nota fiscal, acesse o menu Fiscal.\n\n" +
		"Você também pode emitir pelo aplicativo.\n\n" +
		"🖼️ Imagens relacionadas: nota1.png, nota2.png\n" +
		`🚀 Quick Replies: [{"title":"Ver tutorial","payload":"tutorial nota"},{"title":"Falar com atendente","payload":"atendente"}]`

	tmpl, warnings := DecodeLegacyTemplate(raw)
	require.Empty(t, warnings)

	assert.Equal(t, []string{"nota1.png", "nota2.png"}, tmpl.Images)
	assert.Equal(t, []entities.QuickReply{
		{Title: "Ver tutorial", Payload: "tutorial nota"},
		{Title: "Falar com atendente", Payload: "atendente"},
	}, tmpl.QuickReplies)
	assert.Equal(t, []string{
		"Para emitir uma nota fiscal, acesse o menu Fiscal.",
		"Você também pode emitir pelo aplicativo.",
	}, tmpl.Variants)
	assert.Equal(t, raw, tmpl.Raw)

	for _, v := range tmpl.Variants {
		assert.NotContains(t, v, imagesMarker)
		assert.NotContains(t, v, quickRepliesMarker)
	}
}

func TestDecodeLegacyTemplate_MalformedQuickReplies(t *testing.T) {
	raw := "Texto de ajuda.\n" + quickRepliesMarker + " [{title: sem aspas}]\nMais texto."

	tmpl, warnings := DecodeLegacyTemplate(raw)

	require.Len(t, warnings, 1)
	assert.Equal(t, "quick_replies", warnings[0].Block)
	assert.Empty(t, tmpl.QuickReplies)
	assert.Equal(t, []string{"Texto de ajuda.", "Mais texto."}, tmpl.Variants)
}

func TestDecodeLegacyTemplate_QuickReplyExtraKeys(t *testing.T) {
	block := `[{"title":"Site","payload":"site","type":"url","url":"https://erp.example/ajuda"},{"title":"Sim","payload":"sim"}]`
	raw := "Quer abrir a ajuda?\n" + quickRepliesMarker + " " + block

	tmpl, warnings := DecodeLegacyTemplate(raw)
	require.Empty(t, warnings)

	require.Len(t, tmpl.QuickReplies, 2)
	assert.Equal(t, "Site", tmpl.QuickReplies[0].Title)
	assert.Equal(t, "site", tmpl.QuickReplies[0].Payload)
	assert.JSONEq(t, `"url"`, string(tmpl.QuickReplies[0].Extra["type"]))
	assert.Nil(t, tmpl.QuickReplies[1].Extra)

	encoded, err := json.Marshal(tmpl.QuickReplies)
	require.NoError(t, err)
	assert.JSONEq(t, block, string(encoded))
}

func TestDecodeLegacyTemplate_QuickReplyBadTitle(t *testing.T) {
	raw := "Texto.\n" + quickRepliesMarker + ` [{"title":7,"payload":"x"}]`

	tmpl, warnings := DecodeLegacyTemplate(raw)

	require.Len(t, warnings, 1)
	assert.Equal(t, "quick_replies", warnings[0].Block)
	assert.Empty(t, tmpl.QuickReplies)
	assert.Equal(t, []string{"Texto."}, tmpl.Variants)
}

func TestDecodeLegacyTemplate_BracketInsideTitle(t *testing.T) {
	raw := "Escolha:\n" + quickRepliesMarker + ` [{"title":"Opção [1]","payload":"um"}]`

	tmpl, warnings := DecodeLegacyTemplate(raw)

	require.Empty(t, warnings)
	assert.Equal(t, []entities.QuickReply{{Title: "Opção [1]", Payload: "um"}}, tmpl.QuickReplies)
	assert.Equal(t, []string{"Escolha:"}, tmpl.Variants)
}

func TestDecodeLegacyTemplate_OrderStatusConfig(t *testing.T) {
	raw := "Vou consultar seu pedido.\n" + orderConfigMarker + " {'codigo_nao_encontrado': 'Me diga o número do pedido, por favor.'}"

	tmpl, warnings := DecodeLegacyTemplate(raw)

	require.Empty(t, warnings)
	require.NotNil(t, tmpl.OrderStatus)
	assert.Equal(t, "Me diga o número do pedido, por favor.", tmpl.OrderStatus.CodeNotFound)
	assert.Equal(t, []string{"Vou consultar seu pedido."}, tmpl.Variants)
}

func TestDecodeLegacyTemplate_BrokenOrderStatusConfig(t *testing.T) {
	tmpl, warnings := DecodeLegacyTemplate(orderConfigMarker + " {codigo_nao_encontrado}")

	require.Len(t, warnings, 1)
	require.NotNil(t, tmpl.OrderStatus)
	assert.Empty(t, tmpl.OrderStatus.CodeNotFound)
	assert.Empty(t, tmpl.Variants)
}

func TestDecodeLegacyTemplate_PlainAndEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		variants []string
		images   []string
	}{
		{"single body", "Olá! Como posso ajudar?", []string{"Olá! Como posso ajudar?"}, nil},
		{"crlf separators", "Primeira.\r\n\r\nSegunda.", []string{"Primeira.", "Segunda."}, nil},
		{"whitespace-only blank line", "Um.\n   \nDois.", []string{"Um.", "Dois."}, nil},
		{"images only", imagesMarker + " a.png, , b.png ", nil, []string{"a.png", "b.png"}},
		{"empty", "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, warnings := DecodeLegacyTemplate(tt.raw)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.variants, tmpl.Variants)
			assert.Equal(t, tt.images, tmpl.Images)
		})
	}
}

func TestSplitVariants(t *testing.T) {
	got := SplitVariants("a\n\n\n\nb\n\n  \n\nc")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Nil(t, SplitVariants(strings.Repeat("\n", 4)))
}
