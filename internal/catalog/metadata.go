package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"umbra/internal/umbraerr"
)

// TableMetadata is the fixed-width bookkeeping record stored next to
// the schema. The mutation engine bumps it on every write.
type TableMetadata struct {
	Name        string
	Creator     string
	CreatedAt   int64
	ModifiedAt  int64
	PageCount   int32
	PageSize    int32
	RecordCount int64
}

const (
	metaNameLen    = 64
	metaCreatorLen = 32
	metaRecordSize = metaNameLen + metaCreatorLen + 8 + 8 + 4 + 4 + 8
)

// NewTableMetadata initializes the record for a freshly created table.
func NewTableMetadata(name, creator string, pageSize int) TableMetadata {
	now := time.Now().Unix()
	return TableMetadata{
		Name:       name,
		Creator:    creator,
		CreatedAt:  now,
		ModifiedAt: now,
		PageSize:   int32(pageSize),
	}
}

// Touch updates the modification stamp.
func (m *TableMetadata) Touch() {
	m.ModifiedAt = time.Now().Unix()
}

func putPadded(buf *bytes.Buffer, s string, width int) {
	b := make([]byte, width)
	copy(b, s)
	buf.Write(b)
}

func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// SaveMetadata writes the record as a single fixed-width binary blob.
func SaveMetadata(m TableMetadata, dirs Dirs) error {
	path := dirs.MetadataPath(m.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &umbraerr.IoError{Path: path, Cause: err}
	}
	var buf bytes.Buffer
	buf.Grow(metaRecordSize)
	putPadded(&buf, m.Name, metaNameLen)
	putPadded(&buf, m.Creator, metaCreatorLen)
	for _, v := range []any{m.CreatedAt, m.ModifiedAt, m.PageCount, m.PageSize, m.RecordCount} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return &umbraerr.Internal{Msg: "metadata encode: " + err.Error()}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &umbraerr.IoError{Path: path, Cause: err}
	}
	return nil
}

// LoadMetadata reads the record back; a missing file yields a zeroed
// record for the table so a fresh table starts from nothing.
func LoadMetadata(table string, dirs Dirs) (TableMetadata, error) {
	path := dirs.MetadataPath(table)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TableMetadata{Name: table}, nil
		}
		return TableMetadata{}, &umbraerr.IoError{Path: path, Cause: err}
	}
	if len(raw) < metaRecordSize {
		return TableMetadata{}, &umbraerr.Internal{Msg: "metadata record truncated: " + path}
	}
	m := TableMetadata{
		Name:    trimNul(raw[:metaNameLen]),
		Creator: trimNul(raw[metaNameLen : metaNameLen+metaCreatorLen]),
	}
	r := bytes.NewReader(raw[metaNameLen+metaCreatorLen:])
	for _, v := range []any{&m.CreatedAt, &m.ModifiedAt, &m.PageCount, &m.PageSize, &m.RecordCount} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return TableMetadata{}, &umbraerr.Internal{Msg: "metadata decode: " + err.Error()}
		}
	}
	return m, nil
}
