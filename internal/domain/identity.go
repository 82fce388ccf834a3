package domain

// Identity 鉴权中间件解析出的调用者身份；nil 表示未登录
type Identity struct {
	UserID string
	Email  string
}
