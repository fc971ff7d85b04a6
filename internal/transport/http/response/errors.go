package response

import (
	"errors"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
)

// FromError 把业务/鉴权错误翻译成业务码与对外消息；internal 只给通用消息
func FromError(err error) (code int, msg string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return CodeUnauthorized, "missing token"
	case errors.Is(err, auth.ErrInvalidToken):
		return CodeUnauthorized, "invalid token"
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		return CodeServerError, CodeMsgMap[CodeServerError]
	}
	switch de.Kind {
	case domain.KindValidation:
		return CodeBadRequest, de.Msg
	case domain.KindUnauthorized:
		return CodeUnauthorized, de.Msg
	case domain.KindForbidden:
		return CodeForbidden, de.Msg
	case domain.KindNotFound:
		return CodeNotFound, de.Msg
	case domain.KindInsufficientStock:
		return CodeInsufficientStock, de.Msg
	case domain.KindEmptyCart:
		return CodeEmptyCart, de.Msg
	default:
		return CodeServerError, CodeMsgMap[CodeServerError]
	}
}
