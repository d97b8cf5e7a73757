package httpHandler

import "github.com/gin-gonic/gin"

const (
	statusSuccess = "success"
	statusFail    = "fail"
)

const (
	msgInvalidPayload     = "Invalid payload."
	msgEmailExists        = "Sorry. That email already exists."
	msgUsernameExists     = "Sorry. That username already exists."
	msgUserDoesNotExist   = "User does not exist"
	msgSomethingWentWrong = "Something went wrong."
)

func success(c *gin.Context, code int, key string, value any) {
	c.JSON(code, gin.H{
		"status": statusSuccess,
		key:      value,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status":  statusFail,
		"message": message,
	})
}
