package action

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/query"
	"lawdesk/pkg/utils"
)

var (
	caseNumberRe = regexp.MustCompile(`^[A-Z0-9]{16}$`)
	personNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// Validator 包一层 validator/v10：字段名取 json tag，错误转成 字段 -> 文案列表
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("casenumber", func(fl validator.FieldLevel) bool {
		return caseNumberRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return utils.IsID(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(passwordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("datestr", func(fl validator.FieldLevel) bool {
		_, _, err := query.ParseTime(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("specialization", func(fl validator.FieldLevel) bool {
		return domain.Specialization(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// passwordProblems 密码策略：6-100 位，含大小写字母、数字、特殊字符
func passwordProblems(pw string) []string {
	var out []string
	if n := len(pw); n < 6 {
		out = append(out, "must be at least 6 characters long")
	} else if n > 100 {
		out = append(out, "cannot exceed 100 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		out = append(out, "must contain at least one uppercase letter")
	}
	if !lower {
		out = append(out, "must contain at least one lowercase letter")
	}
	if !digit {
		out = append(out, "must contain at least one number")
	}
	if !special {
		out = append(out, "must contain at least one special character")
	}
	return out
}

// Struct 校验失败返回 apperr validation，details 的 key 为 json 字段路径（如 user.email）
func (v *Validator) Struct(in any) error {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.Internal("validate input", err)
	}
	details := map[string][]string{}
	for _, fe := range ves {
		key := fieldPath(fe.Namespace())
		details[key] = append(details[key], messages(fe)...)
	}
	return apperr.Validation(details)
}

// fieldPath 去掉根类型名和匿名嵌入结构（首字母大写的段）
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return ns
	}
	return strings.Join(kept, ".")
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func messages(fe validator.FieldError) []string {
	switch fe.Tag() {
	case "required", "required_without":
		return []string{"is required"}
	case "email":
		return []string{"must be a valid email address"}
	case "url":
		return []string{"must be a valid URL"}
	case "min":
		if isNumeric(fe.Kind()) {
			return []string{"must be at least " + fe.Param()}
		}
		return []string{"must be at least " + fe.Param() + " characters long"}
	case "max":
		if isNumeric(fe.Kind()) {
			return []string{"must be at most " + fe.Param()}
		}
		return []string{"cannot exceed " + fe.Param() + " characters"}
	case "oneof":
		return []string{"must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")}
	case "casenumber":
		return []string{"must be a 16-character alphanumeric code without hyphens or spaces"}
	case "objectid":
		return []string{"must be a valid id"}
	case "datestr":
		return []string{"must be a valid date"}
	case "specialization":
		return []string{"must be a valid specialization"}
	case "personname":
		return []string{"can only contain letters and spaces"}
	case "password":
		s, _ := fe.Value().(string)
		if ps := passwordProblems(s); len(ps) > 0 {
			return ps
		}
		return []string{"is invalid"}
	}
	return []string{fmt.Sprintf("failed %q check", fe.Tag())}
}
