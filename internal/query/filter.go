package query

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/pkg/utils"
)

// 允许的时间格式；纯日期按 UTC 当天零点
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime 解析日期/时间字符串，dateOnly 表示输入不含时间部分
func ParseTime(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}

// escapeLike 转义 LIKE 通配符，统一用 '!' 作为转义符（mysql/pg/sqlite 通用）
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// textMatch 对固定列做不区分大小写的子串 OR 匹配
func textMatch(q string, cols ...string) Scope {
	q = strings.TrimSpace(q)
	if q == "" || len(cols) == 0 {
		return nil
	}
	pat := "%" + escapeLike(strings.ToLower(q)) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = "LOWER(" + c + ") LIKE ? ESCAPE '!'"
		args[i] = pat
	}
	expr := "(" + strings.Join(parts, " OR ") + ")"
	return func(db *gorm.DB) *gorm.DB { return db.Where(expr, args...) }
}

// dateRange 闭区间；只给一端则为开区间。纯日期的 end 覆盖当天
func dateRange(col, start, end string) (Scope, error) {
	var scopes []Scope
	if start != "" {
		t, _, err := ParseTime(start)
		if err != nil {
			return nil, apperr.Field("startDate", "must be a valid date")
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(col+" >= ?", t) })
	}
	if end != "" {
		t, dateOnly, err := ParseTime(end)
		if err != nil {
			return nil, apperr.Field("endDate", "must be a valid date")
		}
		if dateOnly {
			next := t.AddDate(0, 0, 1)
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(col+" < ?", next) })
		} else {
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(col+" <= ?", t) })
		}
	}
	return chain(scopes...), nil
}

// eqID 格式不合法的 id 直接忽略，不报错
func eqID(col, id string) Scope {
	id = strings.TrimSpace(id)
	if id == "" || !utils.IsID(id) {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB { return db.Where(col+" = ?", id) }
}

func eq[T ~string](col string, v T) Scope {
	if v == "" {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB { return db.Where(col+" = ?", string(v)) }
}

func chain(scopes ...Scope) Scope {
	var live []Scope
	for _, s := range scopes {
		if s != nil {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		for _, s := range live {
			db = s(db)
		}
		return db
	}
}

// And 追加条件
func (p Plan) And(s Scope) Plan {
	p.Scope = chain(p.Scope, s)
	return p
}

// order 指定字段升序，否则用默认排序；最后总按 id 升序保证分页稳定
func order(sort string, columns map[string]string, def clause.OrderByColumn) ([]clause.OrderByColumn, error) {
	first := def
	if sort != "" {
		col, ok := columns[sort]
		if !ok {
			return nil, apperr.Field("sort", "unsupported sort field")
		}
		first = clause.OrderByColumn{Column: clause.Column{Name: col}}
	}
	return []clause.OrderByColumn{first, {Column: clause.Column{Name: "id"}}}, nil
}

func desc(col string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: true}
}

func asc(col string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: col}}
}

/* ================== 各实体过滤器 ================== */

// CaseFilter 案件列表
type CaseFilter struct {
	Page
	LawyerID  string            `form:"lawyerId" json:"lawyerId,omitempty"`
	CourtID   string            `form:"courtId" json:"courtId,omitempty"`
	Status    domain.CaseStatus `form:"status" json:"status,omitempty" validate:"omitempty,oneof=pending disposed unassigned"`
	StartDate string            `form:"startDate" json:"startDate,omitempty" validate:"omitempty,datestr"`
	EndDate   string            `form:"endDate" json:"endDate,omitempty" validate:"omitempty,datestr"`
	Sort      string            `form:"sort" json:"sort,omitempty"`
}

var caseSortColumns = map[string]string{
	"caseNumber": "case_number",
	"title":      "title",
	"clientName": "client_name",
	"status":     "status",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

func (f CaseFilter) Plan() (Plan, error) {
	dates, err := dateRange("created_at", f.StartDate, f.EndDate)
	if err != nil {
		return Plan{}, err
	}
	ord, err := order(f.Sort, caseSortColumns, desc("created_at"))
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Scope: chain(
			textMatch(f.Query, "title", "case_number", "client_name"),
			eqID("lawyer_id", f.LawyerID),
			eqID("court_id", f.CourtID),
			eq("status", f.Status),
			dates,
		),
		Order: ord,
		Page:  f.Page,
	}, nil
}

// LawyerFilter 律师列表
type LawyerFilter struct {
	Page
	Role           domain.Role           `form:"role" json:"role,omitempty" validate:"omitempty,oneof=admin lawyer guest"`
	Specialization domain.Specialization `form:"specialization" json:"specialization,omitempty" validate:"omitempty,specialization"`
	Sort           string                `form:"sort" json:"sort,omitempty"`
}

var lawyerSortColumns = map[string]string{
	"name":           "name",
	"email":          "email",
	"specialization": "specialization",
	"role":           "role",
	"caseCount":      "case_count",
	"createdAt":      "created_at",
}

func (f LawyerFilter) Plan() (Plan, error) {
	ord, err := order(f.Sort, lawyerSortColumns, asc("name"))
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Scope: chain(
			textMatch(f.Query, "name", "specialization"),
			eq("role", f.Role),
			eq("specialization", f.Specialization),
		),
		Order: ord,
		Page:  f.Page,
	}, nil
}

// CourtFilter 法院列表；name/location 为子串匹配
type CourtFilter struct {
	Page
	Name     string `form:"name" json:"name,omitempty" validate:"max=191"`
	Location string `form:"location" json:"location,omitempty" validate:"max=191"`
	Sort     string `form:"sort" json:"sort,omitempty"`
}

var courtSortColumns = map[string]string{
	"name":      "name",
	"location":  "location",
	"createdAt": "created_at",
}

func (f CourtFilter) Plan() (Plan, error) {
	ord, err := order(f.Sort, courtSortColumns, asc("name"))
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Scope: chain(
			textMatch(f.Query, "name", "location"),
			textMatch(f.Name, "name"),
			textMatch(f.Location, "location"),
		),
		Order: ord,
		Page:  f.Page,
	}, nil
}

// HearingFilter 听证会列表；CaseNumber 需要先查库解析，由 repo 负责
type HearingFilter struct {
	Page
	CaseID     string `form:"caseId" json:"caseId,omitempty"`
	CaseNumber string `form:"caseNumber" json:"caseNumber,omitempty" validate:"max=32"`
	StartDate  string `form:"startDate" json:"startDate,omitempty" validate:"omitempty,datestr"`
	EndDate    string `form:"endDate" json:"endDate,omitempty" validate:"omitempty,datestr"`
	Sort       string `form:"sort" json:"sort,omitempty"`
}

var hearingSortColumns = map[string]string{
	"date":        "date",
	"description": "description",
	"createdAt":   "created_at",
}

func (f HearingFilter) Plan() (Plan, error) {
	dates, err := dateRange("date", f.StartDate, f.EndDate)
	if err != nil {
		return Plan{}, err
	}
	ord, err := order(f.Sort, hearingSortColumns, desc("created_at"))
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Scope: chain(
			textMatch(f.Query, "description"),
			eqID("case_id", f.CaseID),
			dates,
		),
		Order: ord,
		Page:  f.Page,
	}, nil
}
