package infra

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB abre a conexão gorm para o driver configurado ("postgres" ou "sqlite").
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	return openDB(driver, dsn, os.Stderr)
}

// newDBLogger loga só erros reais e queries lentas. Registro inexistente é
// resposta normal (slug desconhecido, chave inválida) e não vai para o log.
func newDBLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func openDB(driver, dsn string, logOut io.Writer) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: newDBLogger(logOut)}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// SQLite serializa escritas; uma conexão evita "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Migrate cria/atualiza as tabelas accounts, assets e api_keys.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountRecord{}, &AssetRecord{}, &APIKeyRecord{})
}
