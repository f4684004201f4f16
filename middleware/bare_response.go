package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/estagioplus/benefits/utils"
)

// BareResponse makes handlers in the group write their payload without the
// {code,message,data} envelope. The mobile client reads the payload at the top level.
func BareResponse() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(utils.BareResponseKey, true)
		ctx.Next()
	}
}
