package editorial

import (
	"fmt"
	"time"
)

// =============================================================================
// Gate messages
// =============================================================================

const (
	MsgInsufficientItems = "Descreva pelo menos duas peças do seu guarda-roupa, separadas por vírgula (por exemplo: calça jeans escura, camisa branca, blazer preto)."
	MsgBrandOnlyItem     = "O item \"%s\" tinha apenas o nome de uma marca e foi ignorado."
	MsgTooShortItem      = "O item \"%s\" ficou curto demais e foi ignorado."
)

// =============================================================================
// Failure messages
// =============================================================================

const (
	MsgInvalidInput       = "Confira as referências: envie exatamente 3 imagens e/ou de 2 a 3 marcas."
	MsgRateLimited        = "Muitas solicitações seguidas. Tente novamente em %s."
	MsgRateLimitedNoWait  = "Muitas solicitações seguidas. Aguarde um pouco e tente novamente."
	MsgUnauthorized       = "Sua sessão expirou. Entre novamente para continuar."
	MsgSelfieNotAllowed   = "Não usamos selfies como referência. Envie fotos de looks, peças ou inspirações."
	MsgContentNotAllowed  = "Essas referências não podem ser usadas. Escolha imagens relacionadas a moda."
	MsgTryAgain           = "Não conseguimos gerar o editorial agora. Tente novamente."
	MsgNetworkUnavailable = "Sem conexão com o serviço. Verifique sua internet e tente novamente."
)

// UserMessage returns the localized copy shown for a failure.
func UserMessage(err error) string {
	e := AsError(err)
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindInvalidInput:
		return MsgInvalidInput
	case KindInsufficientItems:
		return MsgInsufficientItems
	case KindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf(MsgRateLimited, formatWait(e.RetryAfter))
		}
		return MsgRateLimitedNoWait
	case KindUnauthorized:
		return MsgUnauthorized
	case KindSelfieNotAllowed:
		return MsgSelfieNotAllowed
	case KindContentNotAllowed:
		return MsgContentNotAllowed
	case KindNetworkError:
		return MsgNetworkUnavailable
	default:
		return MsgTryAgain
	}
}

func formatWait(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs <= 1 {
		return "1 segundo"
	}
	if secs < 60 {
		return fmt.Sprintf("%d segundos", secs)
	}
	mins := (secs + 59) / 60
	if mins == 1 {
		return "1 minuto"
	}
	return fmt.Sprintf("%d minutos", mins)
}
