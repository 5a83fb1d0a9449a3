package store

import (
	"atelier/internal/config"
	sqlstore "atelier/internal/store/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// StoreFactory 根据数据库类型创建对应的存储实现
type StoreFactory struct{}

// NewStoreFactory 创建新的存储工厂
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// InitStore 初始化存储的辅助函数
func InitStore(cfg *config.Config) (Store, error) {
	factory := NewStoreFactory()

	if cfg.DBType == "" {
		return nil, nil
	}

	st, err := factory.CreateStore(cfg)
	if err != nil {
		return nil, err
	}

	return st, nil
}

// CreateStore 根据配置创建对应的存储实现
func (f *StoreFactory) CreateStore(cfg *config.Config) (Store, error) {
	switch cfg.DBType {
	case DBTypeMySQL:
		return f.createMySQLStore(cfg)
	case DBTypeSQLite:
		return f.createSQLiteStore(cfg)
	case DBTypePostgres:
		return f.createPostgresStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// createMySQLStore 创建 MySQL 存储
func (f *StoreFactory) createMySQLStore(cfg *config.Config) (Store, error) {
	dsn := cfg.DSNURL
	if dsn == "" {
		// 从各个配置项构建 DSN
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
	}

	db, err := f.openGormDB(mysql.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := UpgradeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to upgrade schema: %w", err)
	}

	return sqlstore.NewGormStore(db), nil
}

// createSQLiteStore 创建 SQLite 存储
func (f *StoreFactory) createSQLiteStore(cfg *config.Config) (Store, error) {
	filePath := cfg.DBPath
	if filePath == "" {
		filePath = "datas/atelier.db" // 默认 SQLite 数据库文件
	}

	// SQLite 会在连接时自动创建 .db 文件，但前提是目录已存在
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	db, err := f.openGormDB(sqlite.Open(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	if err := UpgradeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to upgrade schema: %w", err)
	}

	return sqlstore.NewGormStore(db), nil
}

// createPostgresStore 创建 PostgreSQL 存储
func (f *StoreFactory) createPostgresStore(cfg *config.Config) (Store, error) {
	dsn := cfg.DSNURL
	if dsn == "" {
		// 从各个配置项构建 DSN
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBAddr, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}

	db, err := f.openGormDB(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := UpgradeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to upgrade schema: %w", err)
	}

	return sqlstore.NewGormStore(db), nil
}

func (f *StoreFactory) openGormDB(dialector gorm.Dialector) (*gorm.DB, error) {
	// 配置 GORM 日志
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// 配置 GORM
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
