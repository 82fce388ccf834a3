package gql

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/location"
	"go.uber.org/zap"

	"go-gin-feed-api/internal/core/apperr"
	resp "go-gin-feed-api/internal/transport/http/response"
)

type request struct {
	Query         string                 `json:"query" form:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName" form:"operationName"`
}

// Error 扁平化的错误：{message, status, data}
type Error struct {
	Message   string                    `json:"message"`
	Status    int                       `json:"status,omitempty"`
	Data      interface{}               `json:"data,omitempty"`
	Locations []location.SourceLocation `json:"locations,omitempty"`
	Path      []interface{}             `json:"path,omitempty"`
}

type result struct {
	Data   interface{} `json:"data"`
	Errors []Error     `json:"errors,omitempty"`
}

// FormatError 业务错误带 status/data；语法与校验错误原样返回
func FormatError(fe gqlerrors.FormattedError) Error {
	out := Error{Message: fe.Message, Locations: fe.Locations, Path: fe.Path}
	if ext := fe.Extensions; ext != nil {
		if s, ok := ext["status"].(int); ok {
			out.Status = s
		}
		out.Data = ext["data"]
	}
	return out
}

type Handler struct {
	schema graphql.Schema
	log    *zap.Logger
}

func NewHandler(r *Resolver, l *zap.Logger) (*Handler, error) {
	s, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: s, log: l}, nil
}

func (h *Handler) Serve(c *gin.Context) {
	var req request
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil || req.Query == "" {
		resp.Error(c, apperr.Validation("Must provide query string."))
		return
	}

	res := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})
	out := result{Data: res.Data}
	for _, fe := range res.Errors {
		e := FormatError(fe)
		if e.Status >= http.StatusInternalServerError {
			h.log.Error("graphql resolver failed", zap.String("message", e.Message), zap.Any("path", e.Path))
		}
		out.Errors = append(out.Errors, e)
	}
	c.JSON(http.StatusOK, out)
}
