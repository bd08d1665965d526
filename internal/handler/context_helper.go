package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// wantsRefresh reports whether the caller asked to bypass the open ledger, either with
// ?refresh=true or a Cache-Control: no-cache request header. Unparsable values count as false.
func wantsRefresh(c *gin.Context) bool {
	if refresh, err := strconv.ParseBool(c.Query("refresh")); err == nil {
		return refresh
	}
	for _, directive := range strings.Split(c.GetHeader("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-cache") {
			return true
		}
	}
	return false
}
