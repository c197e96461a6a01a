package output

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pepmatch/psmsearch/internal/errors"
)

// psmModel is PSMRecord's GORM-mapped row.
type psmModel struct {
	ID            uint `gorm:"primaryKey"`
	SpectrumID    int64
	Precursor     float64
	PeptideID     uint32
	Hyperscore    float64
	SharedIons    int32
	TotalIons     int32
	CPSMs         int
	EValue        float64
	RetentionTime float64
	Charge        int32
	FileIndex     int
}

// DatastoreSink is the supplemental output sink backed by SQLite via
// GORM, selected by the output.driver=sqlite config option in place of
// FileSink's CSV output.
type DatastoreSink struct {
	db *gorm.DB
}

// NewDatastoreSink opens (creating if absent) the SQLite database at
// dbPath and migrates the PSM table.
func NewDatastoreSink(dbPath string) (*DatastoreSink, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Component("output").
			Context("operation", "open_sqlite_database").Context("db_path", dbPath).Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Component("output").
			Context("operation", "get_underlying_sqldb").Build()
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, errors.New(err).Category(errors.CategoryDatabase).Component("output").
				Context("operation", "set_pragma").Context("pragma", pragma).Build()
		}
	}

	if err := db.AutoMigrate(&psmModel{}); err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Component("output").
			Context("operation", "automigrate").Build()
	}

	return &DatastoreSink{db: db}, nil
}

// Write implements Sink. GORM serializes access to the underlying
// *sql.DB connection pool itself; no additional locking is needed here.
func (s *DatastoreSink) Write(ctx context.Context, rec PSMRecord) error {
	row := psmModel{
		SpectrumID:    rec.SpectrumID,
		Precursor:     rec.Precursor,
		PeptideID:     rec.PeptideID,
		Hyperscore:    rec.Hyperscore,
		SharedIons:    rec.SharedIons,
		TotalIons:     rec.TotalIons,
		CPSMs:         rec.CPSMs,
		EValue:        rec.EValue,
		RetentionTime: rec.RetentionTime,
		Charge:        rec.Charge,
		FileIndex:     rec.FileIndex,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Component("output").
			Context("operation", "insert_psm").Build()
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *DatastoreSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Component("output").
			Context("operation", "get_underlying_sqldb").Build()
	}
	return sqlDB.Close()
}
