package domain

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindEmptyCart
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindEmptyCart:
		return "empty_cart"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error 业务错误；Msg 面向客户端，Err 为内部原因（不对外输出）
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同类即相等，errors.Is(err, domain.ErrNotFound) 可匹配任意 NotFound
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Msg: "insufficient stock available"}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart, Msg: "cart is empty"}
	ErrForbidden         = &Error{Kind: KindForbidden, Msg: "action forbidden"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
)

func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 internal
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ErrDuplicateKey 仓储层唯一约束冲突（如邮箱已注册）
var ErrDuplicateKey = errors.New("duplicate key")
