package ez

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/apperr"
	resp "lawdesk/internal/transport/http/response"
)

// 上下文 key：userId / role 由 AuthJWT 写入，outcome 由写出信封的一方写入
const (
	KeyUserID  = "userId"
	KeyRole    = "role"
	KeyOutcome = "outcome"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参；Handler 直接返回信封
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/cases/:id"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) resp.Result[O]
}

// RegisterAction 在当前 EZ 下注册动作接口；HTTP 状态码跟随信封的错误分类
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			if c.GetString(KeyUserID) == "" {
				deny[O](c, apperr.Unauthorized("Unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !hasRole(c.GetString(KeyRole), a.Roles) {
				deny[O](c, apperr.Forbidden("Forbidden"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			deny[O](c, err)
			return
		}

		// 3) 执行
		res := a.Handler(c, &in)
		c.Set(KeyOutcome, res.Outcome())
		c.JSON(res.Status(), res)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func deny[O any](c *gin.Context, err error) {
	res := resp.Fail[O](err)
	c.Set(KeyOutcome, res.Outcome())
	c.AbortWithStatusJSON(res.Status(), res)
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func bind[I any](c *gin.Context, b Binder, in *I) error {
	switch b {
	case BindJSON:
		err := c.ShouldBindJSON(in)
		if err == nil || errors.Is(err, io.EOF) {
			return nil
		}
		return jsonBindError(err)
	case BindQuery:
		if err := c.ShouldBindQuery(in); err != nil {
			return queryBindError(c, reflect.TypeOf(in).Elem())
		}
	}
	return nil
}

// jsonBindError 类型不匹配时按字段报错，其余算请求体格式错误
func jsonBindError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return apperr.Field(te.Field, "must be "+expected(te.Type))
	}
	var me *http.MaxBytesError
	if errors.As(err, &me) {
		return apperr.Field("body", "request body too large")
	}
	return apperr.Field("body", "must be valid JSON")
}

func expected(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	}
	return "a valid value"
}

// queryBindError gin 的 form 绑定错误不带字段名，这里逐个数字字段重新解析定位
func queryBindError(c *gin.Context, t reflect.Type) error {
	details := map[string][]string{}
	collectNumberErrors(c, t, details)
	if len(details) == 0 {
		details["query"] = []string{"is malformed"}
	}
	return apperr.Validation(details)
}

func collectNumberErrors(c *gin.Context, t reflect.Type, out map[string][]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if f.Anonymous && ft.Kind() == reflect.Struct {
			collectNumberErrors(c, ft, out)
			continue
		}
		key := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if key == "" || key == "-" {
			continue
		}
		raw, ok := c.GetQuery(key)
		if !ok || raw == "" {
			continue
		}
		switch ft.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				out[key] = append(out[key], "must be a number")
			}
		case reflect.Bool:
			if _, err := strconv.ParseBool(raw); err != nil {
				out[key] = append(out[key], "must be a boolean")
			}
		}
	}
}

// UserID 当前登录用户
func UserID(c *gin.Context) string { return c.GetString(KeyUserID) }
