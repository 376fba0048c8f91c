package ledger

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// recordRow is the single table backing SQLStore. The composite primary key
// on (bucket, record_key) enforces insert-if-absent.
type recordRow struct {
	Bucket string `gorm:"primaryKey;size:64"`
	Key    []byte `gorm:"column:record_key;primaryKey;type:varbinary(128)"`
	Value  []byte `gorm:"type:longblob;not null"`
}

// TableName returns the table name
func (recordRow) TableName() string {
	return "ledger_records"
}

// SQLStore persists records in a relational database through gorm.
// Updates from one SQLStore run one at a time; reads inside an Update take
// row locks (SELECT ... FOR UPDATE) so writers in other processes wait for
// each other instead of overwriting a stale snapshot.
type SQLStore struct {
	db *gorm.DB
	mu deadlock.Mutex
}

// Compile-time interface check.
var _ Store = (*SQLStore)(nil)

// OpenMySQLStore connects to MySQL with the given DSN and migrates the
// records table.
func OpenMySQLStore(dsn string) (*SQLStore, error) {
	return OpenSQLStore(mysql.Open(dsn))
}

// OpenSQLStore opens a store on any gorm dialector whose driver translates
// duplicate-key errors.
func OpenSQLStore(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: open sql db: %w", err)
	}
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("ledger: migrate records table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// View runs fn inside a database transaction; writes fail with ErrReadOnly.
func (s *SQLStore) View(fn func(tx Tx) error) error {
	return s.db.Transaction(func(gtx *gorm.DB) error {
		return fn(&sqlTx{db: gtx})
	})
}

// Update runs fn inside a database transaction that is rolled back when fn
// returns an error.
func (s *SQLStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Transaction(func(gtx *gorm.DB) error {
		return fn(&sqlTx{db: gtx, writable: true})
	})
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ledger: sql handle: %w", err)
	}
	return sqlDB.Close()
}

type sqlTx struct {
	db       *gorm.DB
	writable bool
}

// query scopes reads to the transaction, locking the rows read by writers.
func (t *sqlTx) query() *gorm.DB {
	if t.writable {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *sqlTx) Get(bucket, key []byte) ([]byte, error) {
	if err := checkKey(bucket, key); err != nil {
		return nil, err
	}
	var row recordRow
	err := t.query().Where("bucket = ? AND record_key = ?", string(bucket), key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get: %w", err)
	}
	return row.Value, nil
}

func (t *sqlTx) Insert(bucket, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	row := recordRow{Bucket: string(bucket), Key: key, Value: value}
	err := t.db.Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s/%x", ErrExists, bucket, key)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: insert: %w", err)
	}
	return nil
}

func (t *sqlTx) Put(bucket, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if err := checkKey(bucket, key); err != nil {
		return err
	}
	row := recordRow{Bucket: string(bucket), Key: key, Value: value}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlstore: put: %w", err)
	}
	return nil
}

func (t *sqlTx) ForEach(bucket []byte, fn func(key, value []byte) error) error {
	var rows []recordRow
	if err := t.query().Where("bucket = ?", string(bucket)).Order("record_key").Find(&rows).Error; err != nil {
		return fmt.Errorf("sqlstore: scan %s: %w", bucket, err)
	}
	for _, row := range rows {
		if err := fn(row.Key, row.Value); err != nil {
			return err
		}
	}
	return nil
}
