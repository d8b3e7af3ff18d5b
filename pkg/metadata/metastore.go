package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrTableNotFound = errors.New("table not found")

type Metastore struct {
	Schema   Schema            `json:"schema"`
	NameToId map[string]string `json:"name_to_id"`
	FilePath string            `json:"-"`
	Mu       sync.RWMutex      `json:"-"`

	logger *slog.Logger
}

// MetastoreSnapshot pins the data files of a table until Release is called.
type MetastoreSnapshot struct {
	TableName string       `json:"table_name"`
	Files     []*FileEntry `json:"files"`
	Columns   []ColumnDef  `json:"columns"`

	releaseOnce sync.Once
}

func (s *MetastoreSnapshot) Release() {
	if s == nil {
		return
	}
	s.releaseOnce.Do(func() {
		for _, f := range s.Files {
			f.DecRef()
		}
	})
}

func NewMetastore(dbmsBaseDir string, logger *slog.Logger) (*Metastore, error) {
	metastoreDir := filepath.Join(dbmsBaseDir, "ms_data")
	if err := os.MkdirAll(metastoreDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating metastore directory %s", metastoreDir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ms := &Metastore{
		Schema: Schema{
			Tables: make(map[string]*TableDef),
		},
		NameToId: make(map[string]string),
		FilePath: filepath.Join(metastoreDir, "metastore.json"),
		logger:   logger,
	}

	if err := ms.Load(); err != nil {
		return nil, errors.Wrap(err, "initializing metastore")
	}
	logger.Info("metastore loaded", "path", ms.FilePath, "tables", len(ms.Schema.Tables))
	return ms, nil
}

func (m *Metastore) Load() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	data, err := os.ReadFile(m.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(data, m)
}

// Save persists metadata to disk. It acquires a read lock
func (m *Metastore) Save() error {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return m.save()
}

// Assumes lock is held
func (m *Metastore) save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.FilePath, data, 0644)
}

func (m *Metastore) CreateTable(name string, columns []ColumnDef) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	tableId, err := m.newTableId(name)
	if err != nil {
		return "", err
	}

	m.Schema.Tables[tableId] = &TableDef{
		Name:    name,
		Columns: columns,
		Files:   make([]*FileEntry, 0),
	}
	m.logger.Info("table created", "table", name, "table_id", tableId, "columns", len(columns))
	return tableId, m.save()
}

func (m *Metastore) GetTableByName(name string) (*TableDef, bool) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return m.getTableByNameUnlocked(name)
}

func (m *Metastore) getTableByNameUnlocked(name string) (*TableDef, bool) {
	id, ok := m.NameToId[name]
	if !ok {
		return nil, false
	}
	return m.getTableByIdUnlocked(id)
}

func (m *Metastore) GetTableById(id string) (*TableDef, bool) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return m.getTableByIdUnlocked(id)
}

func (m *Metastore) getTableByIdUnlocked(id string) (*TableDef, bool) {
	t, ok := m.Schema.Tables[id]
	return t, ok
}

func (m *Metastore) DeleteTable(tableId string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	table, exists := m.getTableByIdUnlocked(tableId)
	if !exists {
		return errors.Wrapf(ErrTableNotFound, "table %s does not exist", tableId)
	}

	for _, f := range table.Files {
		f.MarkDeleted()
	}

	delete(m.Schema.Tables, tableId)
	delete(m.NameToId, table.Name)
	m.logger.Info("table deleted", "table", table.Name, "table_id", tableId)
	return m.save()
}

func (m *Metastore) AddFile(tableName string, filePath string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	table, exists := m.getTableByNameUnlocked(tableName)
	if !exists {
		return errors.Wrapf(ErrTableNotFound, "table %s does not exist", tableName)
	}

	table.Files = append(table.Files, &FileEntry{Path: filePath})
	return m.save()
}

func (m *Metastore) GetTableSnapshot(tableName string) (*MetastoreSnapshot, error) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()

	table, exists := m.getTableByNameUnlocked(tableName)
	if !exists {
		return nil, errors.Wrapf(ErrTableNotFound, "table %s does not exist", tableName)
	}

	filesSnapshot := make([]*FileEntry, 0, len(table.Files))
	for _, f := range table.Files {
		f.IncRef()
		filesSnapshot = append(filesSnapshot, f)
	}

	return &MetastoreSnapshot{
		TableName: table.Name,
		Files:     filesSnapshot,
		Columns:   table.Columns,
	}, nil
}

func (m *Metastore) GetTables() (names []string, ids []string) {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	for id, table := range m.Schema.Tables {
		names = append(names, table.Name)
		ids = append(ids, id)
	}
	return names, ids
}

// Assumes write lock is held
func (m *Metastore) newTableId(tableName string) (string, error) {
	if _, exists := m.NameToId[tableName]; exists {
		return "", errors.Newf("table %s already exists", tableName)
	}
	id := fmt.Sprintf("%s_%d", tableName, time.Now().UnixNano())
	m.NameToId[tableName] = id
	return id, nil
}
