package genclient

// Kind 对生成失败进行分类：network（传输层失败）、remote（服务端
// 返回了结构化错误）、stopped（用户取消）、unknown（其它异常）。
type Kind string

const (
	KindNetwork Kind = "network"
	KindRemote  Kind = "remote"
	KindStopped Kind = "stopped"
	KindUnknown Kind = "unknown"
)

// Error carries the failure class alongside the user-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified generation error.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Classify returns the failure class of err, KindUnknown for anything
// that is not a generation *Error.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if genErr, ok := err.(*Error); ok {
		return genErr.Kind
	}
	return KindUnknown
}
