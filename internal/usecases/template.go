package usecases

import (
	"chatbot_erp/internal/entities"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

const (
	quickRepliesMarker = "🚀 Quick Replies:"
	orderConfigMarker  = "⚙️ Consulta de Pedido:"
	imagesMarker       = "🖼️ Imagens relacionadas:"
)

var (
	quickRepliesBlock = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(quickRepliesMarker) + `\s*(\[.*?\])`)
	orderConfigBlock  = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(orderConfigMarker) + `\s*(\{.*?\})`)
	imagesLine        = regexp.MustCompile(regexp.QuoteMeta(imagesMarker) + `[ \t]*([^\n]*)`)
	blankLine         = regexp.MustCompile(`\n[ \t]*\n`)
)

// TemplateDecodeWarning describes a block that could not be parsed. Decoding continues.
type TemplateDecodeWarning struct {
	Block string
	Err   error
}

type orderConfig struct {
	CodeNotFound string `json:"codigo_nao_encontrado"`
}

// DecodeLegacyTemplate turns a stored composite reply into a ResponseTemplate.
// Marker blocks are cut out of the body whether or not they parse.
func DecodeLegacyTemplate(raw string) (*entities.ResponseTemplate, []TemplateDecodeWarning) {
	tmpl := &entities.ResponseTemplate{Raw: raw}
	var warnings []TemplateDecodeWarning

	body := strings.ReplaceAll(raw, "\r\n", "\n")

	body, replies, err := cutQuickReplies(body)
	if err != nil {
		warnings = append(warnings, TemplateDecodeWarning{Block: "quick_replies", Err: err})
	}
	tmpl.QuickReplies = replies

	if loc := orderConfigBlock.FindStringSubmatchIndex(body); loc != nil {
		var cfg orderConfig
		doc := strings.ReplaceAll(body[loc[2]:loc[3]], "'", `"`)
		if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
			warnings = append(warnings, TemplateDecodeWarning{Block: "order_status", Err: err})
		}
		tmpl.OrderStatus = &entities.OrderStatusTemplate{CodeNotFound: strings.TrimSpace(cfg.CodeNotFound)}
		body = body[:loc[0]] + body[loc[1]:]
	}

	if loc := imagesLine.FindStringSubmatchIndex(body); loc != nil {
		for _, name := range strings.Split(body[loc[2]:loc[3]], ",") {
			if name = strings.TrimSpace(name); name != "" {
				tmpl.Images = append(tmpl.Images, name)
			}
		}
		body = body[:loc[0]] + body[loc[1]:]
	}

	tmpl.Variants = SplitVariants(body)
	return tmpl, warnings
}

// cutQuickReplies removes the quick-reply block. The JSON array is read with a
// decoder so brackets inside titles do not end it early.
func cutQuickReplies(body string) (string, []entities.QuickReply, error) {
	start := strings.Index(body, quickRepliesMarker)
	if start < 0 {
		return body, nil, nil
	}
	rest := body[start+len(quickRepliesMarker):]

	var replies []entities.QuickReply
	dec := json.NewDecoder(strings.NewReader(rest))
	err := dec.Decode(&replies)
	if err == nil && strings.HasPrefix(strings.TrimLeft(rest, " \t\r\n"), "[") {
		end := start + len(quickRepliesMarker) + int(dec.InputOffset())
		return body[:start] + body[end:], replies, nil
	}
	if err == nil {
		err = errors.New("quick replies block is not a JSON array")
	}

	// Malformed: drop through the first closing bracket, else to end of line.
	if loc := quickRepliesBlock.FindStringIndex(body[start:]); loc != nil && loc[0] == 0 {
		return body[:start] + body[start+loc[1]:], nil, err
	}
	end := strings.IndexByte(body[start:], '\n')
	if end < 0 {
		return body[:start], nil, err
	}
	return body[:start] + body[start+end:], nil, err
}

// SplitVariants splits a body on blank lines and drops empty parts.
func SplitVariants(body string) []string {
	var variants []string
	for _, part := range blankLine.Split(body, -1) {
		if part = strings.TrimSpace(part); part != "" {
			variants = append(variants, part)
		}
	}
	return variants
}
