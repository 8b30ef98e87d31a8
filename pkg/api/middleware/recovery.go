package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crawl-engine/pkg/api/dto"
)

// Recovery panic恢复中间件
// 任务体在调度器内已有recover保护，这里兜底处理器与中间件自身的panic
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer recoverRequest(c)
		c.Next()
	}
}

func recoverRequest(c *gin.Context) {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("❌ [API] 请求处理panic: %s %s, Panic=%v\n%s",
		c.Request.Method, c.Request.URL.Path, r, debug.Stack())
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(http.StatusInternalServerError, "Internal Server Error"))
}
