package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONDataType postgres 使用 jsonb，其他驅動以 text 儲存
func JSONDataType(db *gorm.DB) string {
	if db.Dialector.Name() == DriverPostgres {
		return "jsonb"
	}
	return "text"
}

// ScanJSON 將 []byte 或 string 欄位解成 JSON
func ScanJSON(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// StringList 以 JSON 陣列儲存的字串列表
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	return ScanJSON(value, (*[]string)(l))
}

// GormDBDataType 依驅動決定欄位型別
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return JSONDataType(db)
}
