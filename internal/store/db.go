package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// LookupQuery selects a page of lookup history.
type LookupQuery struct {
	Offset    int
	Limit     int
	Operation string
	BatchID   string
	// HostMatch, when set, keeps only lookups whose hostname it accepts.
	HostMatch func(hostname string) bool
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&SuffixSet{}, &Lookup{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSuffixSet inserts or replaces the suffix set with the same name.
func (d *Database) SaveSuffixSet(set *SuffixSet) error {
	if set == nil {
		return errors.New("suffix set is nil")
	}
	set.Name = normalizeKey(set.Name)
	if set.Name == "" {
		return errors.New("suffix set name is required")
	}
	if set.SuffixesJSON == "" {
		set.SetSuffixes(nil)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "description", "suffixes_json", "updated_at"}),
	}).Create(set).Error
}

// GetSuffixSet fetches a suffix set by name. It returns gorm.ErrRecordNotFound
// when no set has that name.
func (d *Database) GetSuffixSet(name string) (*SuffixSet, error) {
	var set SuffixSet
	if err := d.gorm.Where("name = ?", normalizeKey(name)).First(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

// ListSuffixSets returns all suffix sets ordered by name.
func (d *Database) ListSuffixSets() ([]SuffixSet, error) {
	var sets []SuffixSet
	if err := d.gorm.Model(&SuffixSet{}).Order("name ASC").Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

// DeleteSuffixSet removes a suffix set by name.
func (d *Database) DeleteSuffixSet(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Where("name = ?", normalizeKey(name)).Delete(&SuffixSet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveLookup appends a lookup to the history.
func (d *Database) SaveLookup(l *Lookup) error {
	if l == nil {
		return errors.New("lookup is nil")
	}
	l.Hostname = normalizeKey(l.Hostname)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(l).Error
}

// CountLookups returns the number of recorded lookups.
func (d *Database) CountLookups() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Lookup{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListLookups returns a page of lookups, newest first, and the total number
// of lookups selected by the query.
func (d *Database) ListLookups(q LookupQuery) ([]Lookup, int64, error) {
	scoped := func() *gorm.DB {
		tx := d.gorm.Model(&Lookup{})
		if q.Operation != "" {
			tx = tx.Where("operation = ?", q.Operation)
		}
		if q.BatchID != "" {
			tx = tx.Where("batch_id = ?", q.BatchID)
		}
		return tx
	}

	if q.HostMatch == nil {
		var total int64
		if err := scoped().Count(&total).Error; err != nil {
			return nil, 0, err
		}
		query := scoped().Order("id DESC")
		if q.Limit > 0 {
			query = query.Offset(q.Offset).Limit(q.Limit)
		}
		var rows []Lookup
		if err := query.Find(&rows).Error; err != nil {
			return nil, 0, err
		}
		return rows, total, nil
	}

	rows, err := scoped().Order("id DESC").Rows()
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []Lookup
		total int64
	)
	for rows.Next() {
		var l Lookup
		if err := d.gorm.ScanRows(rows, &l); err != nil {
			return nil, 0, err
		}
		if !q.HostMatch(l.Hostname) {
			continue
		}
		if total >= int64(q.Offset) && (q.Limit <= 0 || len(out) < q.Limit) {
			out = append(out, l)
		}
		total++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ClearLookups removes the whole lookup history.
func (d *Database) ClearLookups() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Lookup{}).Error
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_suffix_sets_name ON suffix_sets(name)",
		"CREATE INDEX IF NOT EXISTS idx_lookups_operation_created ON lookups(operation, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_lookups_domain ON lookups(domain)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
