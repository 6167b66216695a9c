package query

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = 100000
)

// Page 分页 + 全文检索参数；nil 表示走默认值，显式的非正数在校验阶段拒绝
type Page struct {
	Page     *int   `form:"page" json:"page,omitempty" validate:"omitnil,min=1,max=100000"`
	PageSize *int   `form:"pageSize" json:"pageSize,omitempty" validate:"omitnil,min=1,max=100"`
	Query    string `form:"query" json:"query,omitempty" validate:"max=200"`
}

func (p Page) Number() int {
	if p.Page == nil || *p.Page < 1 {
		return DefaultPage
	}
	if *p.Page > MaxPage {
		return MaxPage
	}
	return *p.Page
}

func (p Page) Size() int {
	if p.PageSize == nil || *p.PageSize < 1 {
		return DefaultPageSize
	}
	if *p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return *p.PageSize
}

// Offset 页码与页大小都有上限，乘积不会溢出
func (p Page) Offset() int { return (p.Number() - 1) * p.Size() }

// Result 列表结果
type Result[T any] struct {
	Items  []T  `json:"items"`
	IsNext bool `json:"isNext"`
}

// Scope 由各实体过滤器生成，只追加 WHERE 条件
type Scope func(*gorm.DB) *gorm.DB

// Plan 一次列表查询：条件 + 排序 + 分页
type Plan struct {
	Scope Scope
	Order []clause.OrderByColumn
	Page  Page
	// Empty 为 true 时直接返回空页（例如按案号过滤但案号不存在）
	Empty bool
}

// Run 执行计数与分页查询；isNext = total > skip + 本页条数
func Run[T any](ctx context.Context, db *gorm.DB, plan Plan) (Result[T], error) {
	out := Result[T]{Items: []T{}}
	if plan.Empty {
		return out, nil
	}
	base := func() *gorm.DB {
		q := db.WithContext(ctx).Model(new(T))
		if plan.Scope != nil {
			q = plan.Scope(q)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return out, err
	}
	if total == 0 {
		return out, nil
	}

	q := base()
	for _, o := range plan.Order {
		q = q.Order(o)
	}
	skip := plan.Page.Offset()
	if err := q.Offset(skip).Limit(plan.Page.Size()).Find(&out.Items).Error; err != nil {
		return out, err
	}
	out.IsNext = total > int64(skip+len(out.Items))
	return out, nil
}
