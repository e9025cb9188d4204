package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap text 컬럼에 JSON 객체로 저장 (postgres/sqlite 공용)
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil || len(data) == 0 {
		*m = JSONMap{}
		return err
	}
	return json.Unmarshal(data, m)
}

// StringList 이미지 URL 목록 등
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil || len(data) == 0 {
		*l = StringList{}
		return err
	}
	return json.Unmarshal(data, l)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
