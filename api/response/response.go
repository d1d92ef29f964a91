package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeOK   = 0
	CodeFail = -1
)

type Response struct {
	Code int         `json:"code"` // 0:成功, -1:失败
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeOK,
		Msg:  "success",
		Data: data,
	})
}

// FailWithStatus 参数错误 (400)、依赖不可用 (503) 等需要 HTTP 状态码的场景
func FailWithStatus(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{
		Code: CodeFail,
		Msg:  msg,
	})
}
