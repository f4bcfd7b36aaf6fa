package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"gorm.io/gorm"
)

const maxQueryRows = 50

// GormQueryRepository runs guarded, generated SELECT statements
type GormQueryRepository struct {
	db       *gorm.DB
	readOnly bool
}

// NewGormQueryRepository creates a query repository. On postgres every statement runs
// inside a READ ONLY transaction.
func NewGormQueryRepository(db *gorm.DB) repository.QueryRepository {
	return &GormQueryRepository{
		db:       db,
		readOnly: db.Dialector.Name() == "postgres",
	}
}

// RunReadOnly executes query and renders every cell as a string. The transaction is
// always rolled back.
func (r *GormQueryRepository) RunReadOnly(ctx context.Context, query string) (*entity.QueryResult, error) {
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: r.readOnly})
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	rows, err := tx.Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &entity.QueryResult{Columns: columns, Rows: make([][]string, 0)}
	for rows.Next() && len(result.Rows) < maxQueryRows {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}
