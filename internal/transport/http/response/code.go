package response

import "net/http"

// 中间件直接返回的基础设施错误：状态码 + 提示
const (
	MsgTooManyRequests = "Too many requests."
	MsgServerBusy      = "Server busy."
	MsgTimeout         = "Request timed out."
	MsgBodyTooLarge    = "Request body too large."
	MsgInternal        = "An internal error occurred."
	MsgRouteNotFound   = "Route not found."
)

// CodeMsgMap 基础设施错误的默认提示
var CodeMsgMap = map[int]string{
	http.StatusTooManyRequests:       MsgTooManyRequests,
	http.StatusServiceUnavailable:    MsgServerBusy,
	http.StatusGatewayTimeout:        MsgTimeout,
	http.StatusRequestEntityTooLarge: MsgBodyTooLarge,
	http.StatusInternalServerError:   MsgInternal,
	http.StatusNotFound:              MsgRouteNotFound,
}
