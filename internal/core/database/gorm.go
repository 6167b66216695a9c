package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"lawdesk/internal/domain"
)

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

func NewGorm(o Opts) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		log.Println("[db] final mysql dsn =", maskDSN(dsn))
		dial = mysql.Open(dsn)
	case "sqlite":
		// 本地开发与测试用；多连接共享同一个内存库需要 cache=shared
		dial = sqlite.Open(o.DSN)
	default:
		return nil, ErrUnsupportedDriver
	}
	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
		// 时间统一存 UTC，sqlite 按字符串比较时顺序才正确
		NowFunc: func() time.Time { return time.Now().UTC() },
		// 引用一致性由服务层维护（删除律师/法院要把案件改成 unassigned），不建外键
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.Driver == "sqlite" {
		// sqlite 单写者：串行化写入避免 database is locked；
		// 连接不能被回收，否则内存库会随连接一起消失
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	db = db.
		Session(&gorm.Session{
			PrepareStmt:            o.Driver != "sqlite", // 预编译缓存，提高 QPS
			CreateBatchSize:        200,  // 批量写
			SkipDefaultTransaction: true, // 只在需要时手动开 Tx
		})
	return db, nil
}

// Migrate 建表/补索引
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(domain.Models()...)
}

// Ping 健康检查用
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// jdbcParams JDBC/Navicat 风格参数 -> go-sql-driver 参数；空串表示直接丢弃
var jdbcParams = map[string]string{
	"characterEncoding":    "charset",
	"serverTimezone":       "loc",
	"useSSL":               "tls",
	"useUnicode":           "",
	"zeroDateTimeBehavior": "",
}

// normalizeMySQLDSN 把 mysql:// 或 jdbc:mysql:// URL 改写成 user:pass@tcp(host)/db?...；
// 已经是驱动原生格式的 DSN 原样返回
func normalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return strings.TrimSpace(input)
	}
	u, err := url.Parse(in)
	if err != nil {
		return in // 交给驱动报错
	}

	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	q := u.Query()
	for k, dst := range map[string]*string{"user": &user, "password": &pass} {
		if v := q.Get(k); v != "" {
			*dst = v
		}
		q.Del(k)
	}
	if userOverride != "" {
		user = userOverride
	}
	if passOverride != "" {
		pass = passOverride
	}

	for from, to := range jdbcParams {
		v := q.Get(from)
		q.Del(from)
		if v == "" || to == "" || q.Get(to) != "" {
			continue
		}
		if from == "useSSL" {
			v = tlsMode(v)
		}
		q.Set(to, v)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

func tlsMode(useSSL string) string {
	switch strings.ToLower(useSSL) {
	case "true", "1":
		return "true"
	case "skip-verify", "preferred":
		return strings.ToLower(useSSL)
	}
	return "false"
}

// maskDSN 隐藏密码，用于日志
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at <= 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon > 0 {
		return dsn[:colon+1] + "****" + dsn[at:]
	}
	return dsn
}

var ErrUnsupportedDriver = gorm.ErrInvalidDB
