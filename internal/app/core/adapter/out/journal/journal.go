package journal

import (
	"encoding/json"
	"log/slog"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/pkg/wal"
)

// Journal 把每次狀態變更記到 WAL 檔，只供稽核，啟動時不重放
type Journal struct {
	wal    *wal.WAL
	logger *slog.Logger
}

func New(w *wal.WAL, logger *slog.Logger) *Journal {
	return &Journal{
		wal:    w,
		logger: logger,
	}
}

// Record 當作 Hub 的訂閱者；寫入失敗只記 log，不影響帳務狀態
func (j *Journal) Record(ev domain.Event) {
	if err := j.wal.Write(ev); err != nil {
		j.logger.Error("failed to write journal entry",
			"error", err,
			"kind", ev.Kind,
			"version", ev.Version,
		)
	}
}

// Events 讀回所有紀錄
func (j *Journal) Events() ([]domain.Event, error) {
	var events []domain.Event
	err := j.wal.ReadAll(func(jsonRaw []byte) error {
		var ev domain.Event
		if err := json.Unmarshal(jsonRaw, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	return events, err
}
