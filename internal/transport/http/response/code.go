package response

import "net/http"

// 业务错误码：通用部分直接沿用 HTTP 语义，购物车/下单相关用四位码区分
const (
	CodeOK                = 0
	CodeBadRequest        = 400
	CodeUnauthorized      = 401
	CodeForbidden         = 403
	CodeNotFound          = 404
	CodeTooManyRequests   = 429
	CodeServerError       = 500
	CodeBusy              = 503
	CodeTimeout           = 504
	CodeInsufficientStock = 4001
	CodeEmptyCart         = 4002
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:                "OK",
	CodeBadRequest:        "Bad Request",
	CodeUnauthorized:      "Unauthorized",
	CodeForbidden:         "Forbidden",
	CodeNotFound:          "Not Found",
	CodeTooManyRequests:   "Too Many Requests",
	CodeServerError:       "Internal Server Error",
	CodeBusy:              "Service Unavailable",
	CodeTimeout:           "Gateway Timeout",
	CodeInsufficientStock: "Insufficient stock available",
	CodeEmptyCart:         "Cart is empty",
}

// Status 业务码对应的 HTTP 状态
func Status(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInsufficientStock, CodeEmptyCart:
		return http.StatusBadRequest
	}
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusInternalServerError
}
