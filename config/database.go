package config

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// 数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig 数据库配置结构
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Charset  string
	SSLMode  string
}

// GetDatabaseConfig 从环境变量获取数据库配置
func GetDatabaseConfig() *DatabaseConfig {
	driver := GetEnv("DB_DRIVER", DriverMySQL)
	defaultPort := "3306"
	if driver == DriverPostgres {
		defaultPort = "5432"
	}

	cfg := &DatabaseConfig{
		Driver:   driver,
		Host:     GetEnv("DB_HOST", "localhost"),
		Port:     GetEnv("DB_PORT", defaultPort),
		User:     GetEnv("DB_USER", "root"),
		Password: GetEnv("DB_PASSWORD", ""),
		DBName:   GetEnv("DB_NAME", "vehicleoffer"),
		Charset:  GetEnv("DB_CHARSET", "utf8mb4"),
		SSLMode:  GetEnv("DB_SSLMODE", "disable"),
	}

	log.Printf("📋 Database Config Loaded:\n  Driver: %s\n  Host: %s\n  Port: %s\n  User: %s\n  DBName: %s\n  Password: %s\n",
		cfg.Driver, cfg.Host, cfg.Port, cfg.User, cfg.DBName, maskPassword(cfg.Password))

	return cfg
}

// maskPassword 掩盖密码（只显示前2个字符）
func maskPassword(pwd string) string {
	if len(pwd) == 0 {
		return "(empty)"
	}
	if len(pwd) <= 2 {
		return "***"
	}
	return pwd[:2] + "***"
}

// Dialector 根据驱动构建gorm方言
func (c *DatabaseConfig) Dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DBName, c.Charset)
		return mysql.Open(dsn), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
}

// InitDatabase 初始化数据库连接
func InitDatabase(cfg *DatabaseConfig) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	// 配置Gorm日志
	logLevel := logger.Silent
	if GetEnv("GIN_MODE", "release") == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")
	return db, nil
}

// CloseDatabase 关闭数据库连接
func CloseDatabase() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
