package ports

import (
	"github.com/gin-gonic/gin"
)

type SDPHandler interface {
	Munge(c *gin.Context)
	Directions(c *gin.Context)
	LocalDescription(c *gin.Context)
}

type SharedFileHandler interface {
	Share(c *gin.Context)
	List(c *gin.Context)
	Remove(c *gin.Context)
}
