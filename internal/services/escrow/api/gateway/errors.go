package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": errorPayload{Code: code, Message: message}}
}

// writeError renders a service status as the gateway error body. The code is
// the ErrorInfo reason when present and the message prefers the localized
// text over the internal one.
func writeError(c *gin.Context, err error) {
	st := status.Convert(err)
	code := st.Code().String()
	message := st.Message()
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			if d.GetReason() != "" {
				code = d.GetReason()
			}
		case *errdetails.LocalizedMessage:
			if d.GetMessage() != "" {
				message = d.GetMessage()
			}
		}
	}
	c.AbortWithStatusJSON(httpStatus(st.Code()), errorBody(code, message))
}

func writeBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(codes.InvalidArgument.String(), message))
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
