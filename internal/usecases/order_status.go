package usecases

import (
	"regexp"
)

// RE2's \b is ASCII-only, so boundaries are spelled out to treat accented
// letters and other scripts as word characters.
var orderCodePattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(\d{1,9})(?:$|[^\p{L}\p{N}_])`)

const (
	msgOrderCodeMissing      = "Por favor, informe o número do pedido para que eu possa consultar o status."
	msgOrderAPINotConfigured = "A consulta de pedidos não está disponível para a sua conta. Entre em contato com o suporte."
	msgOrderNotFound         = "Não encontrei nenhum pedido com o código %s. Confira o número e tente novamente."
	msgOrderLookupFailed     = "Desculpe, não consegui me comunicar com o sistema de pedidos agora. Tente novamente em alguns minutos."
	msgOrderStatus           = "O status do pedido %s é: %s"
)

// ExtractOrderCode returns the first standalone run of 1 to 9 digits.
func ExtractOrderCode(text string) (string, bool) {
	m := orderCodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
