package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/usecase"
	"github.com/JoeShih716/go-finance-tracker/pkg/mysql"
)

// 資料表名稱
const (
	TableCredits = "credits"
	TableDebits  = "debits"
)

// sqlTransaction 對應 credits / debits 表，兩張表欄位相同
type sqlTransaction struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	RefID       []byte `gorm:"column:ref_id;type:binary(16)"` // 對應 domain.Transaction.ID，可為空
	Description string
	Amount      decimal.Decimal `gorm:"type:decimal(20,4)"`
	OccurredAt  time.Time
}

// toDomain 轉換並驗證，RefID 不合法時重新配發
func (row sqlTransaction) toDomain() (domain.Transaction, error) {
	id, err := uuid.FromBytes(row.RefID)
	if err != nil {
		id = uuid.New()
	}
	tx := domain.Transaction{
		ID:          id,
		Description: row.Description,
		Amount:      row.Amount,
		OccurredAt:  row.OccurredAt,
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Source 從 MySQL 唯讀載入收入與支出，不會寫回
type Source struct {
	client *mysql.Client
}

func NewSource(client *mysql.Client) *Source {
	return &Source{
		client: client,
	}
}

// FetchCredits 讀取 credits 表
func (s *Source) FetchCredits(ctx context.Context) ([]domain.Transaction, error) {
	return s.load(ctx, TableCredits)
}

// FetchDebits 讀取 debits 表
func (s *Source) FetchDebits(ctx context.Context) ([]domain.Transaction, error) {
	return s.load(ctx, TableDebits)
}

// load 依主鍵順序讀出整張表 (即寫入順序)
func (s *Source) load(ctx context.Context, table string) ([]domain.Transaction, error) {
	rows, err := queryRows(s.client.DB().WithContext(ctx), table)
	if err != nil {
		return nil, &domain.FetchError{Resource: table, Err: err}
	}
	list, err := toDomainList(rows)
	if err != nil {
		return nil, &domain.FetchError{Resource: table, Err: err}
	}
	return list, nil
}

func queryRows(db *gorm.DB, table string) ([]sqlTransaction, error) {
	var rows []sqlTransaction
	err := db.Table(table).Order("id ASC").Find(&rows).Error
	return rows, err
}

func toDomainList(rows []sqlTransaction) ([]domain.Transaction, error) {
	list := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, tx)
	}
	return list, nil
}

var _ usecase.Source = (*Source)(nil)
